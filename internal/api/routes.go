package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/timeweaver/internal/alarm"
	"github.com/danmuck/timeweaver/internal/auth"
	"github.com/danmuck/timeweaver/internal/scheduler"
	"github.com/danmuck/timeweaver/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type lifecycleRequest struct {
	Action string `json:"action"`
}

func (s *Server) RegisterRoutes() {
	r := s.router
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.ID,
			"version": Version,
		})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":   true,
			"pending": len(s.scheduler.Pending()),
			"service": s.ID,
			"version": Version,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	alarms := r.Group("/alarms", s.requireHostToken())
	alarms.GET("", s.listAlarms)
	alarms.POST("", s.createAlarm)
	alarms.GET("/:id", s.getAlarm)
	alarms.PUT("/:id", s.updateAlarm)
	alarms.DELETE("/:id", s.deleteAlarm)
	alarms.POST("/:id/toggle", s.toggleAlarm)

	notifications := r.Group("/notifications", s.requireHostToken())
	notifications.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"notifications": s.scheduler.Pending()})
	})
	notifications.POST("/:id/actions/:action", s.notificationAction)

	host := r.Group("/lifecycle", s.requireHostToken())
	host.POST("", s.lifecycleBody)
	host.POST("/:signal", func(c *gin.Context) {
		s.deliverSignal(c, c.Param("signal"))
	})
}

func (s *Server) requireHostToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.hostAuth == nil {
			c.Next()
			return
		}
		if err := s.hostAuth.Validate(auth.BearerToken(c.GetHeader("Authorization"))); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

func (s *Server) lifecycleBody(c *gin.Context) {
	var req lifecycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.deliverSignal(c, req.Action)
}

// deliverSignal always accepts: unrecognized actions are dropped by the notifier.
func (s *Server) deliverSignal(c *gin.Context, action string) {
	signal := s.notifier.HandleAction(action)
	c.JSON(http.StatusAccepted, gin.H{
		"signal":  signal.String(),
		"handled": signal.Known(),
	})
}

func (s *Server) listAlarms(c *gin.Context) {
	alarms, err := s.store.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alarms": alarms})
}

func (s *Server) getAlarm(c *gin.Context) {
	id, ok := alarmID(c)
	if !ok {
		return
	}
	a, err := s.store.Get(id)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) createAlarm(c *gin.Context) {
	var in alarm.Alarm
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()
	saved, err := s.store.Add(in)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	s.arm(saved)
	c.JSON(http.StatusCreated, saved)
}

func (s *Server) updateAlarm(c *gin.Context) {
	id, ok := alarmID(c)
	if !ok {
		return
	}
	var in alarm.Alarm
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()
	saved, err := s.store.Update(id, in)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	s.arm(saved)
	c.JSON(http.StatusOK, saved)
}

func (s *Server) deleteAlarm(c *gin.Context) {
	id, ok := alarmID(c)
	if !ok {
		return
	}
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()
	if err := s.store.Delete(id); err != nil {
		writeStoreError(c, err)
		return
	}
	s.scheduler.CancelAlarm(id)
	c.Status(http.StatusNoContent)
}

func (s *Server) toggleAlarm(c *gin.Context) {
	id, ok := alarmID(c)
	if !ok {
		return
	}
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()
	saved, err := s.store.Toggle(id)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	s.arm(saved)
	c.JSON(http.StatusOK, saved)
}

func (s *Server) notificationAction(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}
	action := strings.TrimSpace(c.Param("action"))
	if err := s.scheduler.Act(id, action); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, scheduler.ErrNotificationNotFound), errors.Is(err, store.ErrAlarmNotFound):
			status = http.StatusNotFound
		case errors.Is(err, scheduler.ErrUnknownAction):
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "action": action})
}

// arm schedules a stored alarm; the store write already succeeded, so failures only log.
// Callers hold mutateMu.
func (s *Server) arm(a alarm.Alarm) {
	if err := s.scheduler.ScheduleAlarm(a); err != nil {
		s.logger.Error().Int64("alarm_id", a.ID).Err(err).Msg("alarm stored but not scheduled")
	}
}

func alarmID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alarm id"})
		return 0, false
	}
	return id, true
}

func writeStoreError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrAlarmNotFound):
		status = http.StatusNotFound
	case errors.Is(err, alarm.ErrInvalidAlarm),
		errors.Is(err, alarm.ErrInvalidTime),
		errors.Is(err, alarm.ErrInvalidWeekday):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
