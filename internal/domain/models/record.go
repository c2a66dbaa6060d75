package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ValidationError reports a form field that prevents a record from being built.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func missing(field string) error {
	return &ValidationError{Field: field, Reason: "is required"}
}

// NumericInput carries a money field exactly as it was typed. The JSON form
// accepts both numbers and strings.
type NumericInput struct {
	Raw     string
	Present bool
}

// Amount wraps an already-parsed number.
func Amount(v float64) NumericInput {
	return NumericInput{Raw: strconv.FormatFloat(v, 'f', -1, 64), Present: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NumericInput) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "null" {
		*n = NumericInput{}
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		text = s
	}
	*n = NumericInput{Raw: strings.TrimSpace(text), Present: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n NumericInput) MarshalJSON() ([]byte, error) {
	if !n.Present {
		return []byte("null"), nil
	}
	return json.Marshal(n.Raw)
}

// Float parses the raw text. Empty or unparseable input yields 0.
func (n NumericInput) Float() float64 {
	if n.Raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(n.Raw, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// RecordInput is the raw payload of a sales form submission.
type RecordInput struct {
	ReportType        ReportType     `json:"reportType"`
	Date              string         `json:"date"`
	SalesRep          string         `json:"salesRep"`
	CustomSalesRep    string         `json:"customSalesRep,omitempty"`
	UnitID            string         `json:"unitId"`
	ProductType       ProductType    `json:"productType"`
	CustomProductType string         `json:"customProductType,omitempty"`
	BuyerName         string         `json:"buyerName"`
	UserName          string         `json:"userName"`
	InstallDate       string         `json:"installDate,omitempty"`
	ListPrice         NumericInput   `json:"listPrice"`
	ActualPrice       NumericInput   `json:"actualPrice"`
	ReceivedAmount    NumericInput   `json:"receivedAmount"`
	Source            CustomerSource `json:"source"`
	Referrer          string         `json:"referrer,omitempty"`
	Notes             string         `json:"notes,omitempty"`
}

// DerivedAmounts holds the values computed from the three money inputs.
type DerivedAmounts struct {
	Balance        float64
	DiscountAmount float64
	DiscountRate   float64
}

// DeriveAmounts computes balance and discount figures. The balance never goes
// below zero; the discount rate is not clamped so a markup yields a negative rate.
func DeriveAmounts(listPrice, actualPrice, receivedAmount float64) DerivedAmounts {
	d := DerivedAmounts{Balance: math.Max(0, actualPrice-receivedAmount)}
	if listPrice > 0 {
		d.DiscountAmount = listPrice - actualPrice
		// A rate that overflows cannot be encoded as JSON.
		if rate := 1 - actualPrice/listPrice; !math.IsInf(rate, 0) && !math.IsNaN(rate) {
			d.DiscountRate = rate
		}
	}
	return d
}

// NewRecord validates a form submission and builds an immutable SalesRecord with
// a fresh id, the current timestamp and all derived amounts.
func NewRecord(in RecordInput) (SalesRecord, error) {
	return buildRecord(in, uuid.NewString(), time.Now().UTC())
}

func buildRecord(in RecordInput, id string, now time.Time) (SalesRecord, error) {
	if in.ReportType == "" {
		return SalesRecord{}, missing("reportType")
	}
	if !in.ReportType.Valid() {
		return SalesRecord{}, &ValidationError{Field: "reportType", Reason: fmt.Sprintf("unknown value %q", in.ReportType)}
	}

	date := strings.TrimSpace(in.Date)
	if date == "" {
		return SalesRecord{}, missing("date")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return SalesRecord{}, &ValidationError{Field: "date", Reason: "must be formatted as YYYY-MM-DD"}
	}

	rep, err := resolveSalesRep(in.SalesRep, in.CustomSalesRep)
	if err != nil {
		return SalesRecord{}, err
	}

	product, err := resolveProduct(in.ProductType, in.CustomProductType)
	if err != nil {
		return SalesRecord{}, err
	}

	buyer := strings.TrimSpace(in.BuyerName)
	if buyer == "" {
		return SalesRecord{}, missing("buyerName")
	}

	installDate := strings.TrimSpace(in.InstallDate)
	if installDate != "" {
		if _, err := time.Parse(DateLayout, installDate); err != nil {
			return SalesRecord{}, &ValidationError{Field: "installDate", Reason: "must be formatted as YYYY-MM-DD"}
		}
	}

	if !in.ActualPrice.Present {
		return SalesRecord{}, missing("actualPrice")
	}
	if !in.ReceivedAmount.Present {
		return SalesRecord{}, missing("receivedAmount")
	}

	listPrice, err := nonNegative("listPrice", in.ListPrice)
	if err != nil {
		return SalesRecord{}, err
	}
	actualPrice, err := nonNegative("actualPrice", in.ActualPrice)
	if err != nil {
		return SalesRecord{}, err
	}
	received, err := nonNegative("receivedAmount", in.ReceivedAmount)
	if err != nil {
		return SalesRecord{}, err
	}

	source := in.Source
	if source == "" {
		source = SourceWalkIn
	}
	if !source.Valid() {
		return SalesRecord{}, &ValidationError{Field: "source", Reason: fmt.Sprintf("unknown value %q", source)}
	}

	referrer := strings.TrimSpace(in.Referrer)
	if source == SourceWalkIn {
		referrer = ""
	}

	derived := DeriveAmounts(listPrice, actualPrice, received)

	return SalesRecord{
		ID:             id,
		ReportType:     in.ReportType,
		Date:           date,
		SalesRep:       rep,
		UnitID:         strings.TrimSpace(in.UnitID),
		ProductType:    product,
		BuyerName:      buyer,
		UserName:       strings.TrimSpace(in.UserName),
		InstallDate:    installDate,
		ListPrice:      listPrice,
		ActualPrice:    actualPrice,
		ReceivedAmount: received,
		BalanceAmount:  derived.Balance,
		Source:         source,
		Referrer:       referrer,
		Notes:          strings.TrimSpace(in.Notes),
		DiscountAmount: derived.DiscountAmount,
		DiscountRate:   derived.DiscountRate,
		Timestamp:      now,
	}, nil
}

func resolveSalesRep(selected, custom string) (string, error) {
	selected = strings.TrimSpace(selected)
	if selected == "" {
		return "", missing("salesRep")
	}
	if selected != SalesRepOther {
		return selected, nil
	}
	custom = strings.TrimSpace(custom)
	if custom == "" {
		return "", &ValidationError{Field: "salesRep", Reason: "name is required when OTHER is selected"}
	}
	return custom, nil
}

func resolveProduct(selected ProductType, custom string) (string, error) {
	if selected == "" {
		return "", missing("productType")
	}
	if !selected.Valid() {
		return "", &ValidationError{Field: "productType", Reason: fmt.Sprintf("unknown value %q", selected)}
	}
	if selected == ProductOther {
		if custom = strings.TrimSpace(custom); custom != "" {
			return custom, nil
		}
	}
	return string(selected), nil
}

// minAmount is the smallest normal float64. Smaller non-zero amounts are typos
// and make ratios overflow.
const minAmount = 0x1p-1022

func nonNegative(field string, n NumericInput) (float64, error) {
	v := n.Float()
	switch {
	case v < 0:
		return 0, &ValidationError{Field: field, Reason: "must not be negative"}
	case v != 0 && v < minAmount:
		return 0, &ValidationError{Field: field, Reason: "is too small"}
	}
	return v, nil
}
