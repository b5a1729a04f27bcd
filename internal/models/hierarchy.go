package models

import (
	"time"

	"github.com/google/uuid"
)

// HierarchyCounts summarises what sits under one agent.
type HierarchyCounts struct {
	Employees  int `json:"employees"`
	Properties int `json:"properties"`
	Tenants    int `json:"tenants"`
}

type AgentSummary struct {
	Agent  *User           `json:"agent"`
	Counts HierarchyCounts `json:"counts"`
}

type AgentHierarchy struct {
	Agent     *User           `json:"agent"`
	Employees []*User         `json:"employees"`
	Counts    HierarchyCounts `json:"counts"`
}

type AgentBilling struct {
	AgentID        uuid.UUID       `json:"agentId"`
	AgentName      string          `json:"agentName"`
	TotalCollected float64         `json:"totalCollected"`
	CommissionRate float64         `json:"commissionRate"`
	PlatformFee    float64         `json:"platformFee"`
	NetPayout      float64         `json:"netPayout"`
	PaymentCount   int             `json:"paymentCount"`
	Counts         HierarchyCounts `json:"counts"`
}

type BillingReport struct {
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	Agents      []*AgentBilling `json:"agents"`
	GrandTotal  float64         `json:"grandTotal"`
	PlatformFee float64         `json:"platformFee"`
}
