package service

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
)

// ── calendar ──

func TestCalendarService_SlotCalendar(t *testing.T) {
	s := setupSlots(t)
	now := s.clock.Now()

	ad, err := s.book(model.SlotKindAd, s.ad.ID, now.Add(time.Hour), now.Add(3*time.Hour))
	require.NoError(t, err)
	feat, err := s.book(model.SlotKindFeaturedScript, s.script.ID, now.Add(2*time.Hour), now.Add(4*time.Hour))
	require.NoError(t, err)
	cancelled, err := s.book(model.SlotKindAd, s.ad.ID, now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = s.svc.Slot.Cancel(s.ctx, cancelled.ID, actorOf(s.admin))
	require.NoError(t, err)

	raw, err := s.svc.Calendar.SlotCalendar(s.ctx, &dto.SlotWindowRequest{})
	require.NoError(t, err)
	require.Contains(t, raw, "PRODID:"+calendarProductID)

	cal, err := ics.ParseCalendar(strings.NewReader(raw))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	summaries := map[string]string{}
	for _, e := range events {
		summaries[e.Id()] = e.GetProperty(ics.ComponentPropertySummary).Value
	}
	require.Equal(t, "Ad: Los Santos Roleplay", summaries[ad.Reference+"@fivecrux"])
	require.Equal(t, "Featured script: Featured Garage", summaries[feat.Reference+"@fivecrux"])
	require.NotContains(t, summaries, cancelled.Reference+"@fivecrux")

	raw, err = s.svc.Calendar.SlotCalendar(s.ctx, &dto.SlotWindowRequest{Kind: model.SlotKindFeaturedScript})
	require.NoError(t, err)
	cal, err = ics.ParseCalendar(strings.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, cal.Events(), 1)
}

func TestEventSummary(t *testing.T) {
	require.Equal(t, "Ad", eventSummary(model.SlotKindAd, ""))
	require.Equal(t, "Featured script: HUD", eventSummary(model.SlotKindFeaturedScript, "HUD"))
}

// ── export ──

func TestExportService_ExportSlots(t *testing.T) {
	s := setupSlots(t)
	now := s.clock.Now()

	_, err := s.book(model.SlotKindAd, s.ad.ID, now, now.Add(24*time.Hour))
	require.NoError(t, err)
	_, err = s.book(model.SlotKindFeaturedScript, s.script.ID, now, now.Add(24*time.Hour))
	require.NoError(t, err)

	buf, filename, err := s.svc.Export.ExportSlots(s.ctx, &dto.SlotWindowRequest{})
	require.NoError(t, err)
	require.Equal(t, "slots_"+now.Format("20060102")+"_"+now.Add(30*24*time.Hour).Format("20060102")+".xlsx", filename)

	wb, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Slots")
	require.NoError(t, err)
	require.Len(t, rows, 4) // title, header, two purchases
	require.Equal(t, "Reference", rows[1][0])

	targets := map[string]bool{}
	for _, r := range rows[2:] {
		targets[r[2]] = true
		require.Equal(t, s.buyer.Username, r[3])
	}
	require.True(t, targets["Los Santos Roleplay"])
	require.True(t, targets["Featured Garage"])

	summary, err := wb.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summary, 3)
	require.Equal(t, []string{"ad", "1"}, summary[1][:2])
	require.Equal(t, []string{"featured_script", "1"}, summary[2][:2])
}

func TestExportService_ExportSlots_Empty(t *testing.T) {
	f := setupFixture(t)

	_, _, err := f.svc.Export.ExportSlots(f.ctx, &dto.SlotWindowRequest{})
	require.ErrorIs(t, err, ErrExportNoSlots)
}

func TestColName(t *testing.T) {
	require.Equal(t, "A", colName(0))
	require.Equal(t, "J", colName(9))
	require.Equal(t, "AA", colName(26))
	require.Equal(t, "C7", cell("C", 7))
}

// ── dashboard ──

func TestDashboardService_Stats(t *testing.T) {
	s := setupSlots(t)
	now := s.clock.Now()

	_, err := s.svc.Script.Submit(s.ctx, scriptRequest("Waiting"), actorOf(s.buyer))
	require.NoError(t, err)
	rejected, err := s.svc.Script.Submit(s.ctx, scriptRequest("Nope"), actorOf(s.buyer))
	require.NoError(t, err)
	_, err = s.svc.Moderation.Reject(s.ctx, model.EntityScript, rejected.ID, "duplicate listing", actorOf(s.admin))
	require.NoError(t, err)

	_, err = s.book(model.SlotKindAd, s.ad.ID, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	upcoming, err := s.book(model.SlotKindFeaturedScript, s.script.ID, now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = s.svc.Slot.Cancel(s.ctx, upcoming.ID, actorOf(s.admin))
	require.NoError(t, err)

	stats, err := s.svc.Dashboard.Stats(s.ctx)
	require.NoError(t, err)
	require.Equal(t, dto.StateCounts{Pending: 1, Approved: 1, Rejected: 1}, stats.Scripts)
	require.Equal(t, dto.StateCounts{Approved: 1}, stats.Ads)
	require.Equal(t, dto.StateCounts{}, stats.Giveaways)
	require.EqualValues(t, 2, stats.Users)
	require.EqualValues(t, 1, stats.ActiveAdSlots)
	require.Zero(t, stats.ActiveFeaturedSlots)
	require.EqualValues(t, 2500, stats.RevenueCents)
	require.Equal(t, formatTime(now), stats.GeneratedAt)
}
