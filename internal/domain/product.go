package domain

// Product is a catalog record. Products are loaded once and never mutated.
type Product struct {
	ID          string  `json:"id"`
	Brand       string  `json:"brand"`
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

// AlertAction is a button offered alongside an alert.
type AlertAction struct {
	Text  string `json:"text"`
	Style string `json:"style,omitempty"`
}

// OKAction is the single dismiss action used for error alerts.
var OKAction = AlertAction{Text: "OK"}

// Alert is a notification raised by the pipeline for the surrounding UI.
type Alert struct {
	Title   string        `json:"title"`
	Message string        `json:"message"`
	Actions []AlertAction `json:"actions,omitempty"`
}
