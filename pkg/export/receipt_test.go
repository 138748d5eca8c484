package export

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "01/03/2024", FormatDate("2024-03-01"))
	assert.Equal(t, "", FormatDate(""))
	assert.Equal(t, "2024", FormatDate("2024"))
}

func TestReceiptFilename(t *testing.T) {
	assert.Equal(t, "comprovante-AB12CD-2024.1.pdf", ReceiptFilename("AB12CD/2024.1"))
}

func TestReceipt_WritesPDF(t *testing.T) {
	data := ReceiptData{
		AccessCode: "AB12CD/2024.1",
		Name:       "João da Silva",
		Register:   "120000000",
		Email:      "joao@example.com",
		Course:     "Física",
		Semester:   "2024.1",
		CreatedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	for i := 0; i < 60; i++ {
		data.Irregularities = append(data.Irregularities, ReceiptIrregularity{
			Name:        fmt.Sprintf("Irregularidade %d", i),
			Description: "descrição longa o bastante para ocupar mais de uma linha no comprovante gerado em PDF, forçando quebra de linha",
		})
	}

	var long, short bytes.Buffer
	require.NoError(t, Receipt(&long, data, "https://example.com/", time.UTC))
	require.NoError(t, Receipt(&short, ReceiptData{AccessCode: data.AccessCode}, "https://example.com/", time.UTC))
	assert.True(t, bytes.HasPrefix(long.Bytes(), []byte("%PDF-")))
	assert.Equal(t, 1, pageCount(short.Bytes()))
	assert.Greater(t, pageCount(long.Bytes()), 1, "违规项较多时应分页")
}

// pageCount 统计页面对象；"/Type /Pages" 是页树节点，不计入
func pageCount(pdf []byte) int {
	return bytes.Count(pdf, []byte("/Type /Page\n"))
}

func TestReceipt_NoIrregularities(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Receipt(&buf, ReceiptData{AccessCode: "X/1"}, "https://example.com/", nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Equal(t, 1, pageCount(buf.Bytes()))
}
