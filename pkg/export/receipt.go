package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// ReceiptIrregularity 回执中的一条违规项
type ReceiptIrregularity struct {
	Name        string
	Description string
}

// ReceiptData 生成回执所需的申请字段
type ReceiptData struct {
	AccessCode     string
	Name           string
	Register       string
	Email          string
	Course         string
	Semester       string
	Obs            string
	CreatedAt      time.Time
	Irregularities []ReceiptIrregularity
}

const (
	receiptMarginLeft = 20.0
	receiptTopY       = 30.0
	receiptWrapWidth  = 170.0
	receiptLineHeight = 7.0
	receiptBottomGap  = 20.0
)

// ReceiptFilename 回执下载文件名，访问码中的 / 替换为 -
func ReceiptFilename(accessCode string) string {
	return fmt.Sprintf("comprovante-%s.pdf", strings.ReplaceAll(accessCode, "/", "-"))
}

// FormatDate 将 YYYY-MM-DD 转为 DD/MM/YYYY；空串原样返回
func FormatDate(date string) string {
	if date == "" {
		return ""
	}
	parts := strings.SplitN(date, "-", 3)
	if len(parts) != 3 {
		return date
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}

// receipt 单页排版状态
type receipt struct {
	pdf        *fpdf.Fpdf
	tr         func(string) string
	y          float64
	pageHeight float64
}

// Receipt 生成 A4 申请回执并写入 w。
// 文本按 170mm 折行；y + 行高 超过 页高-20 时换页，新页从 y=30 开始。
func Receipt(w io.Writer, data ReceiptData, siteURL string, loc *time.Location) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Comprovante de Solicitação", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	_, pageHeight := pdf.GetPageSize()
	r := &receipt{
		pdf:        pdf,
		tr:         pdf.UnicodeTranslatorFromDescriptor(""),
		y:          receiptTopY,
		pageHeight: pageHeight,
	}

	created := data.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	if loc != nil {
		created = created.In(loc)
	}

	// ── 页眉 ──
	r.font("B", 20)
	r.text("Comprovante de Solicitação")

	r.y += 10
	pdf.SetDrawColor(0, 0, 0)
	pdf.Line(receiptMarginLeft, r.y, 190, r.y)

	r.y += 10
	r.font("", 12)
	r.text("Código de Acesso: " + data.AccessCode)
	r.y += 8
	r.text("Link para consulta: " + siteURL)
	r.y += 8
	r.text("Data: " + created.Format("02/01/2006"))

	// ── 申请人 ──
	r.section("Dados do Solicitante:", 10)
	r.wrapped("Nome: " + data.Name)
	r.wrapped("Matrícula: " + data.Register)
	r.wrapped("Email: " + data.Email)
	r.wrapped("Curso: " + data.Course)
	r.wrapped("Semestre: " + data.Semester)

	// ── 违规项 ──
	r.section("Irregularidades:", 10)
	if len(data.Irregularities) == 0 {
		r.wrapped("Nenhuma irregularidade registrada.")
	}
	for i, item := range data.Irregularities {
		r.breakIfNeeded()
		r.font("B", 11)
		r.text(fmt.Sprintf("%d. %s", i+1, item.Name))
		r.y += receiptLineHeight
		r.font("", 11)
		r.wrapped("* " + item.Description)
	}

	// ── 备注 ──
	obs := data.Obs
	if obs == "" {
		obs = "—"
	}
	r.section("Observações:", 8)
	r.wrapped(obs)

	return pdf.Output(w)
}

func (r *receipt) font(style string, size float64) {
	r.pdf.SetFont("Helvetica", style, size)
}

func (r *receipt) text(s string) {
	r.pdf.Text(receiptMarginLeft, r.y, r.tr(s))
}

func (r *receipt) section(title string, gap float64) {
	r.y += 15
	r.font("B", 14)
	r.text(title)
	r.y += gap
	r.font("", 11)
}

func (r *receipt) breakIfNeeded() {
	if r.y+receiptLineHeight > r.pageHeight-receiptBottomGap {
		r.pdf.AddPage()
		r.y = receiptTopY
	}
}

// wrapped 折行输出。SplitText 按 rune 查字宽表（仅 256 项），
// 因此先转成单字节编码，再把每个字节当作一个 rune 参与折行。
func (r *receipt) wrapped(s string) {
	for _, line := range r.pdf.SplitText(bytesAsRunes(r.tr(s)), receiptWrapWidth) {
		r.breakIfNeeded()
		r.pdf.Text(receiptMarginLeft, r.y, runesAsBytes(line))
		r.y += receiptLineHeight
	}
}

func bytesAsRunes(s string) string {
	out := make([]rune, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = rune(s[i])
	}
	return string(out)
}

func runesAsBytes(s string) string {
	out := make([]byte, 0, len(s))
	for _, c := range s {
		out = append(out, byte(c))
	}
	return string(out)
}
