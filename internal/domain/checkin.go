package domain

// Spreadsheet column headers of the reservation report.
const (
	ColumnCheckin          = "Checkin"
	ColumnCheckout         = "Checkout"
	ColumnResponsible      = "Responsável"
	ColumnResponsiblePhone = "Telefone Responsável"
	ColumnUnit             = "Unidade"
	ColumnLocator          = "Localizador"
	ColumnCategory         = "Categoria"
	ColumnGuestCount       = "Quantidade Hóspede"
	ColumnResponsibleDoc   = "Documento do Responsavel"
	ColumnEstablishment    = "Nome Estabelecimento"

	// Filter-only columns.
	ColumnCheckinWeb    = "Checkin Web"
	ColumnPaymentStatus = "Status de Pagamento"
)

// PaymentStatusFull is the only payment status that qualifies a reservation.
const PaymentStatusFull = "FULL_PAYMENT"

// ProjectedColumns lists the ten columns kept for every pending check-in, in
// output order.
var ProjectedColumns = []string{
	ColumnCheckin,
	ColumnCheckout,
	ColumnResponsible,
	ColumnResponsiblePhone,
	ColumnUnit,
	ColumnLocator,
	ColumnCategory,
	ColumnGuestCount,
	ColumnResponsibleDoc,
	ColumnEstablishment,
}

// Row is one decoded spreadsheet row keyed by column header. Values are
// string, float64, bool or time.Time.
type Row map[string]any

// CheckInRecord is one reservation with pending online check-in.
type CheckInRecord struct {
	Checkin             string `json:"Checkin"`
	Checkout            string `json:"Checkout"`
	Responsible         string `json:"Responsável"`
	ResponsiblePhone    string `json:"Telefone Responsável"`
	Unit                string `json:"Unidade"`
	Locator             string `json:"Localizador"`
	Category            string `json:"Categoria"`
	GuestCount          string `json:"Quantidade Hóspede"`
	ResponsibleDocument string `json:"Documento do Responsavel"`
	Establishment       string `json:"Nome Estabelecimento"`
}

// DispatchID is the key used to correlate a record with its dispatch history.
// It concatenates the locator and the raw phone, so it survives row reordering
// between uploads of the same report.
func (r CheckInRecord) DispatchID() string {
	return r.Locator + "-" + r.ResponsiblePhone
}

// Values returns the record's fields in ProjectedColumns order.
func (r CheckInRecord) Values() []string {
	return []string{
		r.Checkin,
		r.Checkout,
		r.Responsible,
		r.ResponsiblePhone,
		r.Unit,
		r.Locator,
		r.Category,
		r.GuestCount,
		r.ResponsibleDocument,
		r.Establishment,
	}
}

// Set assigns the field mapped to column. Unknown columns are ignored.
func (r *CheckInRecord) Set(column, value string) {
	switch column {
	case ColumnCheckin:
		r.Checkin = value
	case ColumnCheckout:
		r.Checkout = value
	case ColumnResponsible:
		r.Responsible = value
	case ColumnResponsiblePhone:
		r.ResponsiblePhone = value
	case ColumnUnit:
		r.Unit = value
	case ColumnLocator:
		r.Locator = value
	case ColumnCategory:
		r.Category = value
	case ColumnGuestCount:
		r.GuestCount = value
	case ColumnResponsibleDoc:
		r.ResponsibleDocument = value
	case ColumnEstablishment:
		r.Establishment = value
	}
}
