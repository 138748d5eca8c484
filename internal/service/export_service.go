package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"gradff/backend/internal/model"
	"gradff/backend/internal/repository"
	apperrors "gradff/backend/pkg/errors"
	"gradff/backend/pkg/export"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoRequests   = errors.New("没有可导出的申请")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
//   - CSV / XLSX：按筛选条件导出申请，列与顺序一致
//   - Receipt：单个申请的 PDF 回执
//   - SemesterCalendar：最近学期的 iCalendar 日历
//
// 内容以 bytes.Buffer 返回，由 Handler 设置响应头后写出。
type ExportService interface {
	RequestsCSV(ctx context.Context, filters []repository.Filter) (*bytes.Buffer, string, error)
	RequestsXLSX(ctx context.Context, filters []repository.Filter) (*bytes.Buffer, string, error)
	Receipt(ctx context.Context, requestID string) (*bytes.Buffer, string, error)
	SemesterCalendar(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo      *repository.Repository
	requests  RequestRegistry
	semesters SemesterRegistry
	siteURL   string
	loc       *time.Location
	logger    *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(
	repo *repository.Repository,
	requests RequestRegistry,
	semesters SemesterRegistry,
	siteURL string,
	loc *time.Location,
	logger *zap.Logger,
) ExportService {
	return &exportService{
		repo:      repo,
		requests:  requests,
		semesters: semesters,
		siteURL:   siteURL,
		loc:       loc,
		logger:    logger,
	}
}

// requestColumns 导出列（CSV 与 XLSX 共用）
var requestColumns = []string{
	"name", "email", "register", "course", "semester", "status",
	"access_code", "obs", "opinion", "irregularities", "files", "created_at",
}

func requestRecord(r *model.Request, loc *time.Location) export.Record {
	created := ""
	if !r.CreatedAt.IsZero() {
		created = r.CreatedAt.In(loc).Format("02/01/2006 15:04")
	}
	return export.Record{
		{Key: "name", Value: r.Name},
		{Key: "email", Value: r.Email},
		{Key: "register", Value: r.Register},
		{Key: "course", Value: r.Course},
		{Key: "semester", Value: r.Semester},
		{Key: "status", Value: r.Status},
		{Key: "access_code", Value: r.AccessCode},
		{Key: "obs", Value: r.Obs},
		{Key: "opinion", Value: r.Opinion},
		{Key: "irregularities", Value: []model.Irregularity(r.Irregularities)},
		{Key: "files", Value: []model.Attachment(r.Files)},
		{Key: "created_at", Value: created},
	}
}

func (s *exportService) listRequests(ctx context.Context, filters []repository.Filter) ([]model.Request, error) {
	for _, f := range filters {
		if !repository.ValidFilterField(f.Field) {
			return nil, ErrUnknownFilterField
		}
	}
	list, err := s.repo.Request.List(ctx, filters)
	if err != nil {
		s.logger.Error("查询导出申请失败", zap.Error(err))
		return nil, apperrors.Transport("export.list", err)
	}
	if len(list) == 0 {
		return nil, ErrExportNoRequests
	}
	return list, nil
}

// exportBaseName 文件名取 semester 条件；没有时为 pedidos
func exportBaseName(filters []repository.Filter) string {
	for _, f := range filters {
		if f.Field == "semester" && f.Value != "" {
			return "pedidos-" + f.Value
		}
	}
	return "pedidos"
}

// ────────────────────── CSV ──────────────────────

func (s *exportService) RequestsCSV(ctx context.Context, filters []repository.Filter) (*bytes.Buffer, string, error) {
	list, err := s.listRequests(ctx, filters)
	if err != nil {
		return nil, "", err
	}

	records := make([]export.Record, 0, len(list))
	for i := range list {
		records = append(records, requestRecord(&list[i], s.loc))
	}
	return bytes.NewBufferString(export.CSV(records)), exportBaseName(filters) + ".csv", nil
}

// ────────────────────── XLSX ──────────────────────

func (s *exportService) RequestsXLSX(ctx context.Context, filters []repository.Filter) (*bytes.Buffer, string, error) {
	list, err := s.listRequests(ctx, filters)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Pedidos"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range requestColumns {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(requestColumns)-1), 1), headerStyle)
	f.SetColWidth(sheetName, "A", colName(len(requestColumns)-1), 20)

	for r := range list {
		row := r + 2
		for c, field := range requestRecord(&list[r], s.loc) {
			f.SetCellValue(sheetName, cell(colName(c), row), export.CellString(field.Value))
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, exportBaseName(filters) + ".xlsx", nil
}

// ────────────────────── Receipt ──────────────────────

func (s *exportService) Receipt(ctx context.Context, requestID string) (*bytes.Buffer, string, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, "", err
	}

	data := export.ReceiptData{
		AccessCode: req.AccessCode,
		Name:       req.Name,
		Register:   req.Register,
		Email:      req.Email,
		Course:     req.Course,
		Semester:   req.Semester,
		Obs:        req.Obs,
		CreatedAt:  req.CreatedAt,
	}
	for _, it := range req.Irregularities {
		data.Irregularities = append(data.Irregularities, export.ReceiptIrregularity{
			Name:        it.Name,
			Description: it.Description,
		})
	}

	buf := new(bytes.Buffer)
	if err := export.Receipt(buf, data, s.siteURL, s.loc); err != nil {
		s.logger.Error("生成回执失败", zap.String("id", requestID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, export.ReceiptFilename(req.AccessCode), nil
}

// ────────────────────── SemesterCalendar ──────────────────────

// SemesterCalendar 每个学期一个全天事件，DTEND 为结束日的次日（iCalendar 全天事件不含结束日）
func (s *exportService) SemesterCalendar(ctx context.Context) (*bytes.Buffer, string, error) {
	semesters, err := s.semesters.Load(ctx)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//gradff//semestres//PT")
	cal.SetName("Semestres")

	stamp := time.Now().UTC()
	for i := range semesters {
		sem := &semesters[i]
		start, err := time.ParseInLocation(model.DateLayout, sem.StartDate, s.loc)
		if err != nil {
			continue
		}
		end, err := time.ParseInLocation(model.DateLayout, sem.EndDate, s.loc)
		if err != nil {
			continue
		}

		summary := "Semestre " + sem.Name
		if strings.TrimSpace(sem.Title) != "" {
			summary += " - " + sem.Title
		}

		ev := cal.AddEvent(fmt.Sprintf("semester-%s@gradff", sem.SemesterID))
		ev.SetDtStampTime(stamp)
		ev.SetSummary(summary)
		ev.SetDescription("Status: " + sem.Status)
		ev.SetAllDayStartAt(start)
		ev.SetAllDayEndAt(end.AddDate(0, 0, 1))
	}

	return bytes.NewBufferString(cal.Serialize()), "semestres.ics", nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
