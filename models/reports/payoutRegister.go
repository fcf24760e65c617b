package reports

import (
	"context"
	"fmt"
	"net/http"

	"github.com/serialpress/novels_backend/config"
	"github.com/serialpress/novels_backend/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type PayoutRegisterRow struct {
	ContributorId   int             `json:"contributor_id"`
	ContributorName string          `json:"contributor_name"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
	CurrencyCode    string          `json:"currency_code"`
	FxRate          decimal.Decimal `json:"fx_rate"`
	PayoutAmount    decimal.Decimal `json:"payout_amount"`
	Status          string          `json:"status"`
}

func getPayoutRegister(ctx context.Context, period models.SettlementPeriod) ([]*PayoutRegisterRow, error) {

	sql := `
SELECT
    p.contributor_id,
    contributors.name AS contributor_name,
    p.base_amount,
    p.payout_currency_code AS currency_code,
    p.fx_rate,
    p.payout_amount,
    p.status
FROM
    payouts p
    LEFT JOIN contributors ON contributors.id = p.contributor_id
WHERE
    p.settlement_period = ?
ORDER BY
    p.contributor_id;
`

	var rows []*PayoutRegisterRow
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, period).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ExportPayoutRegister streams the period's payout register as an XLSX
// workbook for the finance handoff.
func ExportPayoutRegister(w http.ResponseWriter, r *http.Request, period models.SettlementPeriod) {

	f := excelize.NewFile()
	_, err := f.NewSheet("Sheet1")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := getPayoutRegister(r.Context(), period)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Add headers
	f.SetCellValue("Sheet1", "A1", "ContributorId")
	f.SetCellValue("Sheet1", "B1", "ContributorName")
	f.SetCellValue("Sheet1", "C1", "BaseAmount")
	f.SetCellValue("Sheet1", "D1", "Currency")
	f.SetCellValue("Sheet1", "E1", "FxRate")
	f.SetCellValue("Sheet1", "F1", "PayoutAmount")
	f.SetCellValue("Sheet1", "G1", "Status")

	// Add data
	for i, d := range data {
		f.SetCellValue("Sheet1", "A"+fmt.Sprint(i+2), d.ContributorId)
		f.SetCellValue("Sheet1", "B"+fmt.Sprint(i+2), d.ContributorName)
		f.SetCellValue("Sheet1", "C"+fmt.Sprint(i+2), d.BaseAmount.StringFixed(2))
		f.SetCellValue("Sheet1", "D"+fmt.Sprint(i+2), d.CurrencyCode)
		f.SetCellValue("Sheet1", "E"+fmt.Sprint(i+2), d.FxRate.String())
		f.SetCellValue("Sheet1", "F"+fmt.Sprint(i+2), d.PayoutAmount.StringFixed(2))
		f.SetCellValue("Sheet1", "G"+fmt.Sprint(i+2), d.Status)
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payout-register-%s.xlsx", period))
	if err := f.Write(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
