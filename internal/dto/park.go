package dto

// ── 分会 / 职业 ──

// ClassResponse 可选职业
type ClassResponse struct {
	ClassID   int    `json:"class_id"`
	ClassName string `json:"class_name"`
}

// ParkOfficerResponse 当前用户是否为其所属分会官员
type ParkOfficerResponse struct {
	IsOfficer bool `json:"isOfficer"`
	ParkID    int  `json:"parkId"`
}
