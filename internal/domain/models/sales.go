package models

import (
	"fmt"
	"strings"
	"time"
)

// ReportType categorizes a record as an initial sale or a follow-up payment.
type ReportType string

const (
	ReportNewSale      ReportType = "NEW_SALE"
	ReportFinalPayment ReportType = "FINAL_PAYMENT"
)

var reportLabels = map[ReportType]string{
	ReportNewSale:      "New sale (deposit or full payment)",
	ReportFinalPayment: "Final payment / follow-up payment",
}

// Valid reports whether the value is a known report type.
func (t ReportType) Valid() bool {
	_, ok := reportLabels[t]
	return ok
}

// Label returns the human readable name shown on forms and exports.
func (t ReportType) Label() string {
	if label, ok := reportLabels[t]; ok {
		return label
	}
	return string(t)
}

// ProductType enumerates the plot products on offer.
type ProductType string

const (
	ProductPersonalNiche   ProductType = "PERSONAL_NICHE"
	ProductDoubleNiche     ProductType = "DOUBLE_NICHE"
	ProductAncestralTablet ProductType = "ANCESTRAL_TABLET"
	ProductLifeSeat        ProductType = "LIFE_SEAT"
	ProductOther           ProductType = "OTHER"
)

// ProductTypes lists the closed product enumeration in display order.
var ProductTypes = []ProductType{
	ProductPersonalNiche,
	ProductDoubleNiche,
	ProductAncestralTablet,
	ProductLifeSeat,
	ProductOther,
}

// Valid reports whether the value belongs to the product enumeration.
func (p ProductType) Valid() bool {
	for _, known := range ProductTypes {
		if p == known {
			return true
		}
	}
	return false
}

// CustomerSource is the acquisition channel of a buyer.
type CustomerSource string

const (
	SourceWalkIn           CustomerSource = "WALK_IN"
	SourceIndustryReferral CustomerSource = "INDUSTRY_REFERRAL"
	SourceOldCustomer      CustomerSource = "OLD_CUSTOMER"
	SourceMasterReferral   CustomerSource = "MASTER_REFERRAL"
)

// Valid reports whether the value is a known customer source.
func (s CustomerSource) Valid() bool {
	switch s {
	case SourceWalkIn, SourceIndustryReferral, SourceOldCustomer, SourceMasterReferral:
		return true
	}
	return false
}

// SalesRepOther is the sentinel selected when the representative is typed in by hand.
const SalesRepOther = "OTHER"

// SalesReps is the roster of known representatives. An empty roster accepts
// any name; OTHER with a typed-in name is always accepted.
type SalesReps []string

// Check rejects a selected representative that is not on the roster.
func (r SalesReps) Check(in RecordInput) error {
	selected := strings.TrimSpace(in.SalesRep)
	if len(r) == 0 || selected == "" || selected == SalesRepOther {
		return nil
	}
	for _, rep := range r {
		if rep == selected {
			return nil
		}
	}
	return &ValidationError{Field: "salesRep", Reason: fmt.Sprintf("unknown sales rep %q, select OTHER to type a name", selected)}
}

// DateLayout is the calendar date format used for transaction and install dates.
const DateLayout = "2006-01-02"

// SalesRecord is one submitted sales transaction. It is built once by NewRecord
// and never modified afterwards.
type SalesRecord struct {
	ID             string         `json:"id" bson:"id"`
	ReportType     ReportType     `json:"reportType" bson:"report_type"`
	Date           string         `json:"date" bson:"date"`
	SalesRep       string         `json:"salesRep" bson:"sales_rep"`
	UnitID         string         `json:"unitId" bson:"unit_id"`
	ProductType    string         `json:"productType" bson:"product_type"`
	BuyerName      string         `json:"buyerName" bson:"buyer_name"`
	UserName       string         `json:"userName" bson:"user_name"`
	InstallDate    string         `json:"installDate,omitempty" bson:"install_date,omitempty"`
	ListPrice      float64        `json:"listPrice" bson:"list_price"`
	ActualPrice    float64        `json:"actualPrice" bson:"actual_price"`
	ReceivedAmount float64        `json:"receivedAmount" bson:"received_amount"`
	BalanceAmount  float64        `json:"balanceAmount" bson:"balance_amount"`
	Source         CustomerSource `json:"source" bson:"source"`
	Referrer       string         `json:"referrer,omitempty" bson:"referrer,omitempty"`
	Notes          string         `json:"notes,omitempty" bson:"notes,omitempty"`
	DiscountAmount float64        `json:"discountAmount" bson:"discount_amount"`
	DiscountRate   float64        `json:"discountRate" bson:"discount_rate"`
	Timestamp      time.Time      `json:"timestamp" bson:"timestamp"`
}

// IsNewSale reports whether the record counts towards sales attribution.
func (r SalesRecord) IsNewSale() bool {
	return r.ReportType == ReportNewSale
}

// ScheduleEntry is one row of the install schedule projection.
type ScheduleEntry struct {
	InstallDate string `json:"installDate"`
	UnitID      string `json:"unitId"`
	ProductType string `json:"productType"`
	UserName    string `json:"userName"`
	BuyerName   string `json:"buyerName"`
	SalesRep    string `json:"salesRep"`
	Notes       string `json:"notes,omitempty"`
}
