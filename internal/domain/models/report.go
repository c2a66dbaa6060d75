package models

import "time"

// RepRevenue is one bar of the sales representative leaderboard.
type RepRevenue struct {
	SalesRep string  `json:"salesRep" bson:"sales_rep"`
	Revenue  float64 `json:"revenue" bson:"revenue"`
}

// ProductUnits counts new sales of one product type.
type ProductUnits struct {
	ProductType string `json:"productType" bson:"product_type"`
	Units       int    `json:"units" bson:"units"`
}

// DashboardSummary is the aggregate view shown on the dashboard.
type DashboardSummary struct {
	RecordCount    int            `json:"recordCount" bson:"record_count"`
	NewSaleCount   int            `json:"newSaleCount" bson:"new_sale_count"`
	TotalActual    float64        `json:"totalActual" bson:"total_actual"`
	TotalReceived  float64        `json:"totalReceived" bson:"total_received"`
	TotalBalance   float64        `json:"totalBalance" bson:"total_balance"`
	RevenueByRep   []RepRevenue   `json:"revenueByRep" bson:"revenue_by_rep"`
	UnitsByProduct []ProductUnits `json:"unitsByProduct" bson:"units_by_product"`
	Recent         []SalesRecord  `json:"recent" bson:"recent"`
}

// DailySnapshot represents the aggregated daily data to be stored in MongoDB.
type DailySnapshot struct {
	Date      string           `bson:"date" json:"date"`
	Summary   DashboardSummary `bson:"summary" json:"summary"`
	Narrative string           `bson:"narrative,omitempty" json:"narrative,omitempty"`
	CreatedAt time.Time        `bson:"created_at" json:"created_at"`
}
