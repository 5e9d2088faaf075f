package scraper

import "context"

// ColumnCount is the number of mapped columns in a registry results row.
const ColumnCount = 9

// Column is one position of the results table.
type Column struct {
	Key    string
	Header string
}

// Columns maps cell positions to field names, in output order.
var Columns = [ColumnCount]Column{
	{Key: "registration_number", Header: "رقم التسجيل"},
	{Key: "governorate", Header: "المحافظة"},
	{Key: "registration_date", Header: "تاريخ التسجيل"},
	{Key: "owner", Header: "مالك المؤسسة"},
	{Key: "address", Header: "العنوان التجاري"},
	{Key: "trade_name", Header: "الإسم التجاري"},
	{Key: "capital", Header: "رأس المال الحالي"},
	{Key: "status", Header: "الحالة"},
	{Key: "action", Header: "الإجراء"},
}

// Headers returns the output header row.
func Headers() []string {
	headers := make([]string, ColumnCount)
	for i, c := range Columns {
		headers[i] = c.Header
	}
	return headers
}

// Record is one registry row. Positions absent from the source row are empty.
type Record [ColumnCount]string

// RegistrationNumber is the dedup key.
func (r Record) RegistrationNumber() string {
	return r[0]
}

func (r Record) Get(key string) string {
	for i, c := range Columns {
		if c.Key == key {
			return r[i]
		}
	}
	return ""
}

func (r Record) Values() []string {
	return r[:]
}

// NextStrategy is one way of moving the results table to its next page.
// Attempt reports whether it clicked a next control.
type NextStrategy struct {
	Name    string
	Attempt func(ctx context.Context) (bool, error)
}

// Selectors locate the search control, the results table and the
// pagination controls on the registry page.
type Selectors struct {
	SearchButtonID    string   `yaml:"search_button_id"`
	ResultsTableID    string   `yaml:"results_table_id"`
	NextButtonID      string   `yaml:"next_button_id"`
	NextLabels        []string `yaml:"next_labels"`
	NextAffixes       []string `yaml:"next_affixes"`
	ContainerSelector string   `yaml:"container_selector"`
	DisabledMarkers   []string `yaml:"disabled_markers"`
	PaginationMarker  string   `yaml:"pagination_marker"`
	Sentinels         []string `yaml:"sentinels"`
	HeaderRows        int      `yaml:"header_rows"`
	MinCells          int      `yaml:"min_cells"`
}

// DefaultSelectors returns the locators of the CCR Oracle ADF search page.
func DefaultSelectors() *Selectors {
	return &Selectors{
		SearchButtonID:    "pt1:pt_region0:1:b1",
		ResultsTableID:    "pt1:pt_region0:1:t4",
		NextButtonID:      "pt1:pt_region0:1:t4::nb_nx",
		NextLabels:        []string{"الصفحة التالية"},
		NextAffixes:       []string{"›", ">"},
		ContainerSelector: `div[id*="t4"]`,
		DisabledMarkers:   []string{"p_AFDisabled", "disabled"},
		PaginationMarker:  "الصفحة",
		Sentinels:         []string{"عرض"},
		HeaderRows:        2,
		MinCells:          3,
	}
}
