package service

import (
	"context"
	"fmt"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	"github.com/FiveCrux/FiveCrux-sub000/internal/repository"
)

const calendarProductID = "-//FiveCrux//Slot Schedule//EN"

// CalendarService slot schedule as an iCalendar feed
type CalendarService interface {
	SlotCalendar(ctx context.Context, req *dto.SlotWindowRequest) (string, error)
}

type calendarService struct {
	repo   *repository.Repository
	now    Clock
	logger *zap.Logger
}

func NewCalendarService(repo *repository.Repository, now Clock, logger *zap.Logger) CalendarService {
	if now == nil {
		now = utcNow
	}
	return &calendarService{repo: repo, now: now, logger: logger}
}

// SlotCalendar one VEVENT per non-cancelled purchase intersecting the window.
// The event UID is derived from the purchase reference so calendar clients
// update events in place on refresh.
func (s *calendarService) SlotCalendar(ctx context.Context, req *dto.SlotWindowRequest) (string, error) {
	from, to := resolveWindow(req, s.now())
	if !to.After(from) {
		return "", ErrInvalidSlotRange
	}

	slots, err := s.repo.Slot.ListInWindow(ctx, req.Kind, from, to)
	if err != nil {
		s.logger.Error("list slots for calendar failed", zap.Error(err))
		return "", err
	}

	titles := make(map[string]string, len(slots))
	var adIDs, scriptIDs []string
	for _, slot := range slots {
		if slot.Kind == model.SlotKindAd {
			adIDs = append(adIDs, slot.TargetID)
		} else {
			scriptIDs = append(scriptIDs, slot.TargetID)
		}
	}
	ads, err := s.repo.Ad.ListByIDs(ctx, model.StateApproved, adIDs)
	if err != nil {
		return "", err
	}
	for _, a := range ads {
		titles[a.AdID] = a.Title
	}
	scripts, err := s.repo.Script.ListByIDs(ctx, model.StateApproved, scriptIDs)
	if err != nil {
		return "", err
	}
	for _, sc := range scripts {
		titles[sc.ScriptID] = sc.Title
	}

	stamp := s.now()
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)

	for _, slot := range slots {
		evt := cal.AddEvent(slot.Reference + "@fivecrux")
		evt.SetCreatedTime(slot.CreatedAt)
		evt.SetDtStampTime(stamp)
		evt.SetStartAt(slot.StartAt)
		evt.SetEndAt(slot.EndAt)
		evt.SetSummary(eventSummary(slot.Kind, titles[slot.TargetID]))
		evt.SetDescription(fmt.Sprintf("Reference %s\nTarget %s\nStatus %s", slot.Reference, slot.TargetID, slot.Status))
		evt.SetStatus(ics.ObjectStatusConfirmed)
	}
	return cal.Serialize(), nil
}

func eventSummary(kind, title string) string {
	label := "Featured script"
	if kind == model.SlotKindAd {
		label = "Ad"
	}
	if title == "" {
		return label
	}
	return label + ": " + title
}
