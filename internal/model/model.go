package model

import "time"

type ExternalResourceType string

const (
	ExternalResourceEmail     ExternalResourceType = "EMAIL"
	ExternalResourceHyperlink ExternalResourceType = "HYPERLINK"
	ExternalResourceTwitter   ExternalResourceType = "TWITTER"
	ExternalResourceDiscord   ExternalResourceType = "DISCORD"
)

type ExternalResource struct {
	Type  ExternalResourceType `json:"type"`
	Value string               `json:"value"`
}

// RegisterRequest is the body of POST /register. Immutable once bound.
type RegisterRequest struct {
	Account           string             `json:"account"`
	Handle            string             `json:"handle"`
	Name              string             `json:"name,omitempty"`
	Avatar            string             `json:"avatar,omitempty"`
	About             string             `json:"about,omitempty"`
	ExternalResources []ExternalResource `json:"externalResources,omitempty"`
	CaptchaToken      string             `json:"captchaToken,omitempty"`
}

type RegisterResult struct {
	MemberID        uint64  `json:"memberId"`
	Block           *uint32 `json:"block"`
	BlockHash       string  `json:"blockHash,omitempty"`
	TopUpSuccessful bool    `json:"topUpSuccessful"`
}

type Status struct {
	IsSynced       bool   `json:"isSynced"`
	HasEnoughFunds bool   `json:"hasEnoughFunds"`
	Chain          string `json:"chain,omitempty"`
	Message        string `json:"message"`
	Limit          *Limit `json:"limit,omitempty"`
}

type Limit struct {
	MaxInInterval int `json:"maxInInterval"`
	IntervalHours int `json:"intervalHours"`
}

// CreatedMember is the durable record of one successful grant.
type CreatedMember struct {
	MemberID  uint64     `db:"MemberID"`
	Handle    string     `db:"Handle"`
	Account   string     `db:"Account"`
	Block     *uint32    `db:"Block"`
	BlockHash string     `db:"BlockHash"`
	CreatedAt time.Time  `db:"CreatedAt"`
}
