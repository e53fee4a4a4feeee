package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shuttle_desk/internal/capacity"
	"shuttle_desk/internal/consolidate"
	"shuttle_desk/internal/grouping"
	"shuttle_desk/internal/models"
	"shuttle_desk/internal/workflow"
)

// identity is the authenticated caller as carried by the JWT claims. The
// controllers trust it for scoping but still re-verify the acting role
// against the transition table on every mutation.
type identity struct {
	UserID       uint
	Role         models.UserRole
	DepartmentID *uint
	EmployeeID   *uint
}

func callerIdentity(c *gin.Context) identity {
	id := identity{
		UserID: uint(c.MustGet("user_id").(float64)),
		Role:   models.UserRole(c.MustGet("role").(string)),
	}
	if v, ok := c.Get("department_id"); ok {
		if f, ok := v.(float64); ok {
			d := uint(f)
			id.DepartmentID = &d
		}
	}
	if v, ok := c.Get("employee_id"); ok {
		if f, ok := v.(float64); ok {
			e := uint(f)
			id.EmployeeID = &e
		}
	}
	return id
}

// errConcurrentUpdate reports a lost race on a conditional status update: the
// row moved between our read and our write.
var errConcurrentUpdate = errors.New("request status changed concurrently, please retry")

// respondError maps the core error taxonomy onto transport codes. Anything
// unrecognized is a dependency failure and stays vague toward the caller.
func respondError(c *gin.Context, err error) {
	var ise *workflow.InvalidStateError
	var fre *workflow.ForbiddenRoleError
	var cve *capacity.ViolationError
	var ipe *consolidate.InProgressError
	switch {
	case errors.As(err, &ise):
		c.JSON(http.StatusBadRequest, gin.H{"error": ise.Error()})
	case errors.As(err, &fre):
		c.JSON(http.StatusForbidden, gin.H{"error": fre.Error()})
	case errors.As(err, &cve):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     cve.Error(),
			"required":  cve.Required,
			"available": cve.Available,
		})
	case errors.As(err, &ipe):
		c.JSON(http.StatusConflict, gin.H{"error": ipe.Error()})
	case errors.Is(err, consolidate.ErrConcurrentLock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, errConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// applyTransition runs the pure state machine and persists its outcome: a
// conditional status update (guarding against a concurrent second writer)
// plus the audit row, both on the caller's transaction.
func applyTransition(tx *gorm.DB, req *models.TransportRequest, ev workflow.Event, who identity, comment string) error {
	tr, err := workflow.Apply(req.Status, ev, who.Role)
	if err != nil {
		return err
	}
	res := tx.Model(&models.TransportRequest{}).
		Where("id = ? AND status = ?", req.ID, req.Status).
		Update("status", tr.To)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errConcurrentUpdate
	}
	audit := models.ApprovalsAudit{
		RequestID:      req.ID,
		ActionByUserID: who.UserID,
		Action:         tr.Action,
		Comment:        comment,
	}
	if err := tx.Create(&audit).Error; err != nil {
		return err
	}
	req.Status = tr.To
	return nil
}

// loadGroupMembers fetches a request's roster with routing resolved:
// per-request override when present, the employee's stored default otherwise.
func loadGroupMembers(db *gorm.DB, requestID uint) ([]grouping.Member, error) {
	var rows []models.RequestEmployee
	if err := db.Preload("Employee").
		Where("request_id = ?", requestID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	var routes []models.Route
	if err := db.Find(&routes).Error; err != nil {
		return nil, err
	}
	routeByID := make(map[uint]models.Route, len(routes))
	for _, r := range routes {
		routeByID[r.ID] = r
	}
	var subs []models.SubRoute
	if err := db.Find(&subs).Error; err != nil {
		return nil, err
	}
	subByID := make(map[uint]models.SubRoute, len(subs))
	for _, s := range subs {
		subByID[s.ID] = s
	}

	members := make([]grouping.Member, 0, len(rows))
	for _, row := range rows {
		m := grouping.Member{
			EmployeeID:   row.EmployeeID,
			EmpNo:        row.Employee.EmpNo,
			FullName:     row.Employee.FullName,
			DepartmentID: row.Employee.DepartmentID,
			RouteID:      row.EffectiveRouteID,
			SubRouteID:   row.EffectiveSubRouteID,
		}
		if m.RouteID == nil {
			m.RouteID = row.Employee.DefaultRouteID
		}
		if m.SubRouteID == nil {
			m.SubRouteID = row.Employee.DefaultSubRouteID
		}
		if m.RouteID != nil {
			if r, ok := routeByID[*m.RouteID]; ok {
				no, name := r.RouteNo, r.RouteName
				m.RouteNo, m.RouteName = &no, &name
			}
		}
		if m.SubRouteID != nil {
			if s, ok := subByID[*m.SubRouteID]; ok {
				sub := s.SubName
				m.SubName = &sub
			}
		}
		members = append(members, m)
	}
	return members, nil
}

// groupResponse is the wire shape of one computed group.
type groupResponse struct {
	RouteID    *uint           `json:"route_id"`
	SubRouteID *uint           `json:"sub_route_id"`
	RouteNo    *string         `json:"route_no"`
	RouteName  *string         `json:"route_name"`
	SubName    *string         `json:"sub_name"`
	Headcount  int             `json:"headcount"`
	Members    []memberPayload `json:"members"`
}

type memberPayload struct {
	EmployeeID   uint   `json:"employee_id"`
	EmpNo        string `json:"emp_no"`
	FullName     string `json:"full_name"`
	DepartmentID uint   `json:"department_id"`
}

func toGroupResponses(groups []grouping.Group) []groupResponse {
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		gr := groupResponse{
			RouteID:    g.Key.RouteID,
			SubRouteID: g.Key.SubRouteID,
			RouteNo:    g.RouteNo,
			RouteName:  g.RouteName,
			SubName:    g.SubName,
			Headcount:  g.Headcount,
		}
		for _, m := range g.Members {
			gr.Members = append(gr.Members, memberPayload{
				EmployeeID:   m.EmployeeID,
				EmpNo:        m.EmpNo,
				FullName:     m.FullName,
				DepartmentID: m.DepartmentID,
			})
		}
		out = append(out, gr)
	}
	return out
}

// assignmentsForGroup picks out the assignment rows covering one group key.
// An assignment with a nil sub-route covers every sub-route group of its
// route; both nullable legs compare null-safely.
func assignmentsForGroup(all []models.RequestAssignment, key grouping.Key) []models.RequestAssignment {
	var out []models.RequestAssignment
	for _, a := range all {
		k := grouping.Key{RouteID: a.RouteID, SubRouteID: a.SubRouteID}
		if k.Covers(key) {
			out = append(out, a)
		}
	}
	return out
}
