package source

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/bankrank/backend/internal/contracts"
)

// DefaultTableSelector matches the first table of a ratio publication
const DefaultTableSelector = "table"

// headerAliases maps common column captions onto record fields
var headerAliases = map[string]string{
	"bank":      contracts.FieldName,
	"bank_name": contracts.FieldName,
	"nama_bank": contracts.FieldName,
	"car":       "kppm",
	"npl":       "npl_gross",
}

// FromHTML reads bank ratios from an HTML table. The first row holds the
// column captions; each following row is one bank. Cells keep their text
// (percent signs stripped) so numeric validation stays with the engine.
func FromHTML(r io.Reader, selector string) ([]contracts.RawBank, error) {
	if selector == "" {
		selector = DefaultTableSelector
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	table := doc.Find(selector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no table matches %q", contracts.ErrInvalidRequest, selector)
	}

	var headers []string
	banks := make([]contracts.RawBank, 0)

	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() == 0 {
			return
		}

		if headers == nil {
			cells.Each(func(_ int, cell *goquery.Selection) {
				headers = append(headers, normalizeHeader(cell.Text()))
			})
			return
		}

		// 빈 행(구분선 등)은 건너뜀
		if strings.TrimSpace(row.Text()) == "" {
			return
		}

		bank := contracts.RawBank{}
		cells.Each(func(j int, cell *goquery.Selection) {
			if j >= len(headers) || headers[j] == "" {
				return
			}
			bank.SetString(headers[j], cleanCell(cell.Text(), headers[j]))
		})
		banks = append(banks, bank)
	})

	if len(banks) == 0 {
		return nil, contracts.ErrInvalidRequest
	}

	return banks, nil
}

func normalizeHeader(text string) string {
	key := strings.ToLower(strings.TrimSpace(text))
	key = strings.NewReplacer("%", "", "(", "", ")", "").Replace(key)
	key = strings.Join(strings.FieldsFunc(key, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '\u00a0'
	}), "_")

	if alias, ok := headerAliases[key]; ok {
		return alias
	}
	return key
}

func cleanCell(text, field string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\u00a0", " "))
	if field == contracts.FieldName {
		return text
	}
	return strings.TrimSpace(strings.TrimSuffix(text, "%"))
}
