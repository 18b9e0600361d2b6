package domain

import (
	"strconv"
	"strings"
)

// Establishment brands; the brand decides which message template is used.
const (
	BrandAudaar = "audaar"
	BrandLobie  = "lobie"
)

type Establishment struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Brand string `json:"brand"`
	Group string `json:"group"`
}

// Establishments is the static unit catalog used for report requests.
var Establishments = []Establishment{
	{ID: 49, Name: "Audaar tech", Brand: BrandAudaar, Group: "Unidades Audaar"},
	{ID: 33, Name: "Rock Blue Ocean", Brand: BrandAudaar, Group: "Unidades Audaar"},
	{ID: 5, Name: "Rock Suites CGH", Brand: BrandAudaar, Group: "Unidades Audaar"},
	{ID: 3, Name: "Club Suítes", Brand: BrandAudaar, Group: "Unidades Audaar"},
	{ID: 32, Name: "Apartamentos Vivaap", Brand: BrandAudaar, Group: "Apartamentos"},
	{ID: 40, Name: "Residencial Anchieta - Riviera", Brand: BrandAudaar, Group: "Apartamentos"},
	{ID: 45, Name: "Room 4 You", Brand: BrandAudaar, Group: "Outras unidades"},
	{ID: 51, Name: "Hotel Brooklin", Brand: BrandAudaar, Group: "Outras unidades"},
	{ID: 41, Name: "Lobie Botafogo", Brand: BrandLobie, Group: "Unidades Lobie"},
	{ID: 42, Name: "Lobie Barra", Brand: BrandLobie, Group: "Unidades Lobie"},
	{ID: 43, Name: "Lobie Nova Iguaçu", Brand: BrandLobie, Group: "Unidades Lobie"},
	{ID: 44, Name: "Lobie Ipanema", Brand: BrandLobie, Group: "Unidades Lobie"},
	{ID: 46, Name: "Lobie Copacabana", Brand: BrandLobie, Group: "Unidades Lobie"},
	{ID: 48, Name: "Lobie Mediterrâneo", Brand: BrandLobie, Group: "Unidades Lobie"},
	{ID: 50, Name: "Lobie São Joaquim", Brand: BrandLobie, Group: "Unidades Lobie"},
}

// AllEstablishments is the selector value meaning every unit.
const AllEstablishments = "all"

// AllEstablishmentIDs is the comma-joined id list sent for "all units".
const AllEstablishmentIDs = "49,33,5,3,32,40,45,51,41,42,43,44,46,48,50"

// FindEstablishment looks a unit up by its numeric code.
func FindEstablishment(id int) (Establishment, bool) {
	for _, e := range Establishments {
		if e.ID == id {
			return e, true
		}
	}
	return Establishment{}, false
}

// EstablishmentIDs resolves a selector ("all" or a single unit code) to the
// establishmentIds query value. ok is false for unknown codes.
func EstablishmentIDs(selector string) (string, bool) {
	selector = strings.TrimSpace(selector)
	if selector == AllEstablishments {
		return AllEstablishmentIDs, true
	}

	id, err := strconv.Atoi(selector)
	if err != nil {
		return "", false
	}
	if _, ok := FindEstablishment(id); !ok {
		return "", false
	}
	return strconv.Itoa(id), true
}
