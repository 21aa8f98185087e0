package uralsib

import (
	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/parsers"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
)

// Portfolio composition table. Besides declaring the instruments it is
// the source of incoming position counts and of the identifiers the
// payment descriptions refer to.
const (
	securitiesTableName   = "СОСТОЯНИЕ ПОРТФЕЛЯ ЦЕННЫХ БУМАГ"
	securitiesTableFooter = "Итого:"
)

const (
	colSecurityName     table.Column = "name"
	colSecurityISIN     table.Column = "isin"
	colSecurityCFI      table.Column = "cfi"
	colSecurityIncoming table.Column = "incomingCount"
)

var securitiesHeader = table.Header{
	colSecurityName:     table.Keywords("наименование"),
	colSecurityISIN:     table.Keywords("isin"),
	colSecurityCFI:      table.Keywords("cfi"),
	colSecurityIncoming: table.Keywords("количество", "на начало"),
}

// securityInfo ties a registered instrument to the free-text keys the
// payments table identifies it by.
type securityInfo struct {
	securityID    int64
	isin          string
	name          string
	cfi           string
	incomingCount int64
}

func extractSecurities(r *Report, registrar *parsers.SecurityRegistrar) table.Extraction[securityInfo] {
	t, err := table.NewWithFooter(r.page, r.fileName, securitiesTableName, securitiesTableFooter, securitiesHeader, 1)
	if err != nil {
		return table.Extraction[securityInfo]{Errors: []table.RowError{{
			Table: securitiesTableName, File: r.fileName, Err: err,
		}}}
	}
	return table.Extract(t, func(row *table.RowRecord) ([]securityInfo, error) {
		isin, err := row.String(colSecurityISIN)
		if err != nil {
			return nil, err
		}
		name := row.StringOr(colSecurityName, "")
		securityID, err := registrar.DeclareByISIN(isin, func() models.Security {
			return models.Security{ISIN: isin, Name: name, Type: models.TypeStockOrBond}
		})
		if err != nil {
			return nil, err
		}
		return []securityInfo{{
			securityID:    securityID,
			isin:          isin,
			name:          name,
			cfi:           row.StringOr(colSecurityCFI, ""),
			incomingCount: row.LongOr(colSecurityIncoming, 0),
		}}, nil
	})
}
