package ork

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// envelope 上游响应的顶层 JSON 对象
// 集合类接口以 Status.Error 表示结果，动作类接口以顶层 Error 表示结果
type envelope struct {
	raw    json.RawMessage
	fields map[string]json.RawMessage
}

func parseEnvelope(raw []byte) (*envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, errors.New("响应不是 JSON 对象")
	}
	return &envelope{raw: raw, fields: fields}, nil
}

// collectionStatus 读取 Status.Error；值为 Success 时 ok=true，否则返回失败原因
func (e *envelope) collectionStatus() (string, bool) {
	rawStatus, exists := e.fields["Status"]
	if !exists {
		return "missing Status", false
	}
	var status struct {
		Error *string `json:"Error"`
	}
	if err := json.Unmarshal(rawStatus, &status); err != nil || status.Error == nil {
		return "missing Status.Error", false
	}
	return *status.Error, *status.Error == statusSuccess
}

// actionStatus 读取顶层 Error
func (e *envelope) actionStatus() (string, bool) {
	rawErr, exists := e.fields["Error"]
	if !exists {
		return "missing Error", false
	}
	var value string
	if err := json.Unmarshal(rawErr, &value); err != nil {
		return string(rawErr), false
	}
	return value, value == statusSuccess
}

func (e *envelope) decode(v interface{}) error {
	return json.Unmarshal(e.raw, v)
}

// ── 上游数据结构 ──

// Int 兼容上游以数字或数字字符串返回的整型字段
type Int int

// UnmarshalJSON 接受 1、"1"、null 与空字符串
func (n *Int) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*n = Int(v)
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Int(v)
	return nil
}

// LoginResult 登录结果
type LoginResult struct {
	Token  string `json:"Token"`
	UserID Int    `json:"UserId"`
}

// Class 可授课职业
type Class struct {
	ClassID Int    `json:"ClassId"`
	Name    string `json:"Name"`
}

// Player 上游玩家信息
type Player struct {
	MundaneID Int    `json:"MundaneId"`
	Persona   string `json:"Persona"`
	KingdomID Int    `json:"KingdomId"`
	ParkID    Int    `json:"ParkId"`
}

// Officer 分会官员
type Officer struct {
	MundaneID Int    `json:"MundaneId"`
	Persona   string `json:"Persona"`
	Role      string `json:"OfficerRole"`
}

// CreditSubmission 一条记录的积分提交载荷，不持久化
type CreditSubmission struct {
	Token           string
	Date            string
	PlayerID        int
	PlayerKingdomID int
	ClassID         int
	Credits         int
	HostParkID      int
}
