package web

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-follow/pkg/drone"
	"github.com/teslashibe/go-follow/pkg/pilot"
	"github.com/teslashibe/go-follow/pkg/tracking"
)

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Target        string               `json:"target,omitempty"`
	Locked        bool                 `json:"locked"`
	Flying        bool                 `json:"flying"`
	Flight        *drone.TaskInfo      `json:"flight,omitempty"`
	Manual        drone.Direction      `json:"manual,omitempty"`
	Frames        *pilot.Stats         `json:"frames,omitempty"`
	Dispatch      *drone.DispatchStats `json:"dispatch,omitempty"`
	CameraViewers int                  `json:"camera_viewers"`
	EventViewers  int                  `json:"event_viewers"`
}

// LockRequest is the body of POST /api/lock.
type LockRequest struct {
	Name string `json:"name"`
}

// SelectionRequest is the body of POST /api/selection.
type SelectionRequest struct {
	Selection string `json:"selection"`
}

// ManualRequest is the body of POST /api/manual/:direction.
type ManualRequest struct {
	Pressed bool `json:"pressed"`
}

// LockResponse reports the lock state after a change.
type LockResponse struct {
	Target string `json:"target,omitempty"`
	Locked bool   `json:"locked"`
}

func errorJSON(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) lockState() LockResponse {
	target, locked := s.ctl.Lock.Target()
	return LockResponse{Target: target, Locked: locked}
}

// handleStatus returns the lock, flight and loop state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	lock := s.lockState()
	resp := StatusResponse{Target: lock.Target, Locked: lock.Locked}

	if f := s.ctl.Flight; f != nil {
		resp.Flying = f.Flying()
		if t := f.Current(); t != nil {
			info := t.Info()
			resp.Flight = &info
		}
	}
	if m := s.ctl.Manual; m != nil {
		resp.Manual = m.Active()
	}
	if p := s.ctl.Pilot; p != nil {
		st := p.Stats()
		resp.Frames = &st
	}
	if d := s.ctl.Dispatcher; d != nil {
		st := d.Stats()
		resp.Dispatch = &st
	}
	resp.CameraViewers, resp.EventViewers = s.Viewers()

	return c.JSON(resp)
}

// handleGallery lists enrolled names and the selector entries built from them
func (s *Server) handleGallery(c *fiber.Ctx) error {
	names := s.ctl.Gallery.Names()
	selections := append([]string{tracking.SelectionDisable, tracking.SelectionEnableAll}, names...)
	return c.JSON(fiber.Map{
		"names":      names,
		"selections": selections,
	})
}

// handleLock locks onto an enrolled name. An unknown name releases the lock.
func (s *Server) handleLock(c *fiber.Ctx) error {
	var req LockRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}

	if !s.ctl.Lock.Lock(req.Name) {
		s.AddLog("lock", fmt.Sprintf("%q is not enrolled, lock released", req.Name))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":  fmt.Sprintf("%q is not enrolled", req.Name),
			"locked": false,
		})
	}

	s.AddLog("lock", "Locked on "+req.Name)
	return c.JSON(s.lockState())
}

// handleUnlock releases the lock (also serves "stop following")
func (s *Server) handleUnlock(c *fiber.Ctx) error {
	s.ctl.Lock.Unlock()
	s.AddLog("lock", "Stopped following")
	return c.JSON(s.lockState())
}

// handleSelection applies a selector value: a name, "Disable" or "Enable All"
func (s *Server) handleSelection(c *fiber.Ctx) error {
	var req SelectionRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}

	s.ctl.Lock.Apply(req.Selection)
	s.AddLog("lock", req.Selection+" selected")
	return c.JSON(s.lockState())
}

// handleFlightToggle starts a takeoff or landing and returns its task
func (s *Server) handleFlightToggle(c *fiber.Ctx) error {
	if s.ctl.Flight == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, errors.New("no drone connected"))
	}

	task := s.ctl.Flight.Toggle()
	s.AddLog("flight", fmt.Sprintf("%s requested (task %s)", task.Kind, task.ID))
	return c.Status(fiber.StatusAccepted).JSON(task.Info())
}

// handleFlightTask polls a flight task
func (s *Server) handleFlightTask(c *fiber.Ctx) error {
	if s.ctl.Flight == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, errors.New("no drone connected"))
	}

	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, fmt.Errorf("invalid task id: %w", err))
	}

	task, ok := s.ctl.Flight.Task(id)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, fmt.Errorf("task %s not found", id))
	}
	return c.JSON(task.Info())
}

// handleManual starts or stops manual motion in one direction
func (s *Server) handleManual(c *fiber.Ctx) error {
	if s.ctl.Manual == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, errors.New("manual control unavailable"))
	}

	dir, err := drone.ParseDirection(c.Params("direction"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}

	var req ManualRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}

	if req.Pressed {
		err = s.ctl.Manual.Press(dir)
	} else {
		err = s.ctl.Manual.Release()
	}
	if err != nil {
		return errorJSON(c, fiber.StatusBadGateway, err)
	}

	return c.JSON(fiber.Map{
		"direction": dir,
		"pressed":   req.Pressed,
	})
}

// handleGetTuning returns the live pursuit parameters
func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	return c.JSON(s.ctl.Pipeline.Tuning())
}

// handleSetTuning applies non-zero fields; an invalid update changes nothing
func (s *Server) handleSetTuning(c *fiber.Ctx) error {
	var params tracking.TuningParams
	if err := c.BodyParser(&params); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}

	if err := s.ctl.Pipeline.SetTuning(params); err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, err)
	}

	s.AddLog("tuning", "Tuning updated")
	return c.JSON(s.ctl.Pipeline.Tuning())
}

// handleFrame returns the latest annotated frame
func (s *Server) handleFrame(c *fiber.Ctx) error {
	if s.ctl.Pilot == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, errors.New("no frame loop"))
	}
	frame := s.ctl.Pilot.Snapshot()
	if frame == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, errors.New("no frame yet"))
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.Send(frame)
}

// handleLogs returns recent control actions
func (s *Server) handleLogs(c *fiber.Ctx) error {
	return c.JSON(s.Logs())
}
