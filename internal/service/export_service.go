package service

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/pkg/export"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type assignmentLister interface {
	ListByProject(projectID string) []models.Assignment
}

type csvRenderer interface {
	Render(grid export.Grid) ([]byte, error)
}

type pdfRenderer interface {
	Render(grid export.Grid) ([]byte, error)
}

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

var dayNames = map[int]string{
	1: "Monday",
	2: "Tuesday",
	3: "Wednesday",
	4: "Thursday",
	5: "Friday",
	6: "Saturday",
	7: "Sunday",
}

// ExportService renders a project's committed timetable as a printable
// grid: one column per day, one row per time band.
type ExportService struct {
	catalog     *Catalog
	assignments assignmentLister
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(catalog *Catalog, assignments assignmentLister, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		catalog:     catalog,
		assignments: assignments,
		csv:         csv,
		pdf:         pdf,
		logger:      logger,
	}
}

// Generate renders the project's timetable in the requested format and
// returns the payload with its content type.
func (s *ExportService) Generate(projectID, title string, format ExportFormat) ([]byte, string, error) {
	grid := s.buildGrid(projectID, title)
	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(grid)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return payload, "text/csv", nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(grid)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *ExportService) buildGrid(projectID, title string) export.Grid {
	slots := s.catalog.TimeSlots()

	days := make([]int, 0, 7)
	seenDays := make(map[int]struct{})
	bands := make([]string, 0, len(slots))
	seenBands := make(map[string]struct{})
	slotCell := make(map[string][2]int, len(slots))

	for _, slot := range slots {
		if _, ok := seenDays[slot.Day]; !ok {
			seenDays[slot.Day] = struct{}{}
			days = append(days, slot.Day)
		}
		band := slot.Start + " - " + slot.End
		if _, ok := seenBands[band]; !ok {
			seenBands[band] = struct{}{}
			bands = append(bands, band)
		}
	}
	sort.Ints(days)
	sort.Strings(bands)

	dayIdx := make(map[int]int, len(days))
	for i, day := range days {
		dayIdx[day] = i
	}
	bandIdx := make(map[string]int, len(bands))
	for i, band := range bands {
		bandIdx[band] = i
	}
	for _, slot := range slots {
		slotCell[slot.ID] = [2]int{bandIdx[slot.Start+" - "+slot.End], dayIdx[slot.Day]}
	}

	cells := make([][][]string, len(bands))
	for i := range cells {
		cells[i] = make([][]string, len(days))
	}

	for _, assignment := range s.assignments.ListByProject(projectID) {
		entry := s.entryLabel(assignment)
		for _, slotID := range assignment.TimeSlotIDs {
			pos, ok := slotCell[slotID]
			if !ok {
				continue
			}
			cells[pos[0]][pos[1]] = append(cells[pos[0]][pos[1]], entry)
		}
	}

	columns := make([]string, len(days))
	for i, day := range days {
		if name, ok := dayNames[day]; ok {
			columns[i] = name
		} else {
			columns[i] = fmt.Sprintf("Day %d", day)
		}
	}

	rows := make([]export.GridRow, len(bands))
	for i, band := range bands {
		row := export.GridRow{Label: band, Cells: make([]string, len(days))}
		for j := range days {
			sort.Strings(cells[i][j])
			row.Cells[j] = strings.Join(cells[i][j], "; ")
		}
		rows[i] = row
	}

	return export.Grid{Title: title, Columns: columns, Rows: rows}
}

func (s *ExportService) entryLabel(assignment models.Assignment) string {
	code := assignment.SectionID
	if subject, err := s.catalog.Subject(assignment.SubjectID); err == nil && subject.Code != "" {
		code = fmt.Sprintf("%s-%d", subject.Code, sectionIndex(assignment.SectionID))
	}
	label := fmt.Sprintf("%s @%s", code, assignment.RoomID)
	if instructor, err := s.catalog.Instructor(assignment.InstructorID); err == nil && instructor.FullName != "" {
		label += " (" + instructor.FullName + ")"
	}
	return label
}

func sectionIndex(sectionID string) int {
	idx := strings.LastIndex(sectionID, "-")
	if idx < 0 || idx+1 >= len(sectionID) {
		return 0
	}
	n := 0
	for _, r := range sectionID[idx+1:] {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
