package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	"github.com/FiveCrux/FiveCrux-sub000/internal/repository"
)

var (
	ErrExportNoSlots      = errors.New("no slot purchases in the requested window")
	ErrExportGenerateFail = errors.New("failed to generate the spreadsheet")
)

// ExportService spreadsheet exports for admins
//
// The workbook is returned as a buffer; the handler sets the download headers.
type ExportService interface {
	// ExportSlots slot purchases intersecting the window as .xlsx
	ExportSlots(ctx context.Context, req *dto.SlotWindowRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	now    Clock
	logger *zap.Logger
}

func NewExportService(repo *repository.Repository, now Clock, logger *zap.Logger) ExportService {
	if now == nil {
		now = utcNow
	}
	return &exportService{repo: repo, now: now, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportSlots
// ═══════════════════════════════════════════════════════════
//
// Layout:
//   - sheet "Slots": title row, header row, one row per purchase ordered by start
//   - sheet "Summary": purchases and revenue per kind, cancelled rows excluded

var slotColumns = []struct {
	title string
	width float64
}{
	{"Reference", 16},
	{"Kind", 16},
	{"Target", 38},
	{"Buyer", 22},
	{"Start (UTC)", 20},
	{"End (UTC)", 20},
	{"Amount", 12},
	{"Currency", 10},
	{"Status", 12},
	{"Note", 30},
}

func (s *exportService) ExportSlots(ctx context.Context, req *dto.SlotWindowRequest) (*bytes.Buffer, string, error) {
	from, to := resolveWindow(req, s.now())
	if !to.After(from) {
		return nil, "", ErrInvalidSlotRange
	}

	slots, err := s.repo.Slot.ListInWindow(ctx, req.Kind, from, to)
	if err != nil {
		s.logger.Error("list slots for export failed", zap.Error(err))
		return nil, "", err
	}
	if len(slots) == 0 {
		return nil, "", ErrExportNoSlots
	}

	titles, buyers, err := s.labels(ctx, slots)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Slots"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	for i, c := range slotColumns {
		col := colName(i)
		f.SetColWidth(sheet, col, col, c.width)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#5865F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	moneyStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00

	// title
	f.SetCellValue(sheet, "A1", fmt.Sprintf("Slot purchases %s to %s", from.Format("2006-01-02"), to.Format("2006-01-02")))
	f.MergeCell(sheet, "A1", cell(colName(len(slotColumns)-1), 1))
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	// header
	for i, c := range slotColumns {
		f.SetCellValue(sheet, cell(colName(i), 2), c.title)
	}
	f.SetCellStyle(sheet, "A2", cell(colName(len(slotColumns)-1), 2), headerStyle)

	type total struct {
		count int
		cents int64
	}
	totals := map[string]*total{
		model.SlotKindAd:             {},
		model.SlotKindFeaturedScript: {},
	}

	row := 3
	for _, slot := range slots {
		target := titles[slot.TargetID]
		if target == "" {
			target = slot.TargetID
		}
		buyer := buyers[slot.UserID]
		if buyer == "" {
			buyer = slot.UserID
		}
		values := []interface{}{
			slot.Reference,
			slot.Kind,
			target,
			buyer,
			slot.StartAt.UTC().Format("2006-01-02 15:04"),
			slot.EndAt.UTC().Format("2006-01-02 15:04"),
			float64(slot.AmountCents) / 100,
			slot.Currency,
			slot.Status,
			slot.Note,
		}
		for i, v := range values {
			f.SetCellValue(sheet, cell(colName(i), row), v)
		}
		f.SetCellStyle(sheet, cell("G", row), cell("G", row), moneyStyle)

		if t, ok := totals[slot.Kind]; ok {
			t.count++
			t.cents += slot.AmountCents
		}
		row++
	}

	// summary sheet
	summary := "Summary"
	f.NewSheet(summary)
	f.SetColWidth(summary, "A", "A", 18)
	f.SetColWidth(summary, "B", "C", 14)
	f.SetCellValue(summary, "A1", "Kind")
	f.SetCellValue(summary, "B1", "Purchases")
	f.SetCellValue(summary, "C1", "Revenue")
	f.SetCellStyle(summary, "A1", "C1", headerStyle)
	for i, kind := range []string{model.SlotKindAd, model.SlotKindFeaturedScript} {
		r := i + 2
		f.SetCellValue(summary, cell("A", r), kind)
		f.SetCellValue(summary, cell("B", r), totals[kind].count)
		f.SetCellValue(summary, cell("C", r), float64(totals[kind].cents)/100)
		f.SetCellStyle(summary, cell("C", r), cell("C", r), moneyStyle)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write spreadsheet failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("slots_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	return buf, filename, nil
}

// labels resolves target titles and buyer names for the rows.
func (s *exportService) labels(ctx context.Context, slots []model.SlotPurchase) (map[string]string, map[string]string, error) {
	var adIDs, scriptIDs, userIDs []string
	for _, slot := range slots {
		if slot.Kind == model.SlotKindAd {
			adIDs = append(adIDs, slot.TargetID)
		} else {
			scriptIDs = append(scriptIDs, slot.TargetID)
		}
		userIDs = append(userIDs, slot.UserID)
	}

	titles := make(map[string]string, len(slots))
	ads, err := s.repo.Ad.ListByIDs(ctx, model.StateApproved, adIDs)
	if err != nil {
		return nil, nil, err
	}
	for _, a := range ads {
		titles[a.AdID] = a.Title
	}
	scripts, err := s.repo.Script.ListByIDs(ctx, model.StateApproved, scriptIDs)
	if err != nil {
		return nil, nil, err
	}
	for _, sc := range scripts {
		titles[sc.ScriptID] = sc.Title
	}

	buyers := make(map[string]string, len(userIDs))
	users, err := s.repo.User.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, nil, err
	}
	for _, u := range users {
		buyers[u.UserID] = u.Username
	}
	return titles, buyers, nil
}

// ── helpers ──

// colName zero-based column index to letters
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
