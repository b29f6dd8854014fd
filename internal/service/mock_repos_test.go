package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"maces/backend/config"
	"maces/backend/internal/model"
	"maces/backend/internal/repository"
	pkgerrors "maces/backend/pkg/errors"
	"maces/backend/pkg/jwt"
	"maces/backend/pkg/ork"
)

// ── Mock AttendanceRepository ──
// 以 JSON 保存文档，模拟文档存储的值语义

type mockAttendanceRepo struct {
	order []string
	docs  map[string][]byte
	seq   int

	createErr error
	listErr   error
	markErr   error
	markMiss  bool // MarkSubmitted 返回 (false, nil)
	markCalls int
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{docs: make(map[string][]byte)}
}

func (m *mockAttendanceRepo) Create(_ context.Context, rec *model.AttendanceRecord) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.seq++
	id := fmt.Sprintf("rec-%d", m.seq)
	body, _ := json.Marshal(rec)
	m.docs[id] = body
	m.order = append(m.order, id)
	return id, nil
}

func (m *mockAttendanceRepo) List(_ context.Context, f repository.AttendanceFilter) ([]model.StoredAttendance, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []model.StoredAttendance
	for _, id := range m.order {
		var rec model.AttendanceRecord
		_ = json.Unmarshal(m.docs[id], &rec)
		if f.Date != "" && rec.Date != f.Date {
			continue
		}
		if f.HostParkID != 0 && rec.HostParkID != f.HostParkID {
			continue
		}
		if f.EventCalendarDetailID != nil && rec.EventCalendarDetailID != *f.EventCalendarDetailID {
			continue
		}
		if f.PlayerID != nil && rec.Player.ID != *f.PlayerID {
			continue
		}
		if f.Submitted != nil && rec.Submitted != *f.Submitted {
			continue
		}
		result = append(result, model.StoredAttendance{ID: id, Record: rec})
	}
	return result, nil
}

func (m *mockAttendanceRepo) Update(_ context.Context, id string, rec *model.AttendanceRecord) (bool, error) {
	if _, ok := m.docs[id]; !ok {
		return false, nil
	}
	m.docs[id], _ = json.Marshal(rec)
	return true, nil
}

func (m *mockAttendanceRepo) MarkSubmitted(_ context.Context, id string, rec *model.AttendanceRecord) (bool, error) {
	m.markCalls++
	if m.markErr != nil {
		return false, m.markErr
	}
	if m.markMiss {
		return false, nil
	}
	cur, ok := m.get(id)
	if !ok || cur.Submitted {
		return false, nil
	}
	m.docs[id], _ = json.Marshal(rec)
	return true, nil
}

func (m *mockAttendanceRepo) get(id string) (model.AttendanceRecord, bool) {
	var rec model.AttendanceRecord
	body, ok := m.docs[id]
	if !ok {
		return rec, false
	}
	_ = json.Unmarshal(body, &rec)
	return rec, true
}

// seed 直接写入一条记录并返回 ID
func (m *mockAttendanceRepo) seed(rec model.AttendanceRecord) string {
	id, _ := m.Create(context.Background(), &rec)
	return id
}

// ── Mock Upstream ──

type mockUpstream struct {
	loginResult *ork.LoginResult
	loginErr    error
	classes     []ork.Class
	classesErr  error
	player      *ork.Player
	playerErr   error
	officer     bool
	officerErr  error

	// rejectPlayers 中的玩家提交积分时返回上游拒绝
	rejectPlayers map[int]bool
	submitErr     error
	submissions   []ork.CreditSubmission

	officerQuery [2]int
}

func (m *mockUpstream) Login(_ context.Context, _, _ string) (*ork.LoginResult, error) {
	return m.loginResult, m.loginErr
}

func (m *mockUpstream) ListClasses(_ context.Context) ([]ork.Class, error) {
	return m.classes, m.classesErr
}

func (m *mockUpstream) FetchPlayer(_ context.Context, _ string, _ int) (*ork.Player, error) {
	return m.player, m.playerErr
}

func (m *mockUpstream) SubmitCredit(_ context.Context, sub *ork.CreditSubmission) (json.RawMessage, error) {
	m.submissions = append(m.submissions, *sub)
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	if m.rejectPlayers[sub.PlayerID] {
		return nil, fmt.Errorf("%w: could not enter credits: Player is not active", pkgerrors.ErrUpstreamRejection)
	}
	return json.RawMessage(`{"Status":0,"Error":"Success"}`), nil
}

func (m *mockUpstream) IsParkOfficer(_ context.Context, parkID, playerID int) (bool, error) {
	m.officerQuery = [2]int{parkID, playerID}
	return m.officer, m.officerErr
}

func (m *mockUpstream) submissionsFor(playerID int) int {
	n := 0
	for _, s := range m.submissions {
		if s.PlayerID == playerID {
			n++
		}
	}
	return n
}

// ── Mock SessionRevoker ──

type mockRevoker struct {
	revoked map[string]time.Duration
	err     error
}

func (m *mockRevoker) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	if m.revoked == nil {
		m.revoked = make(map[string]time.Duration)
	}
	m.revoked[jti] = ttl
	return nil
}

// ── 测试辅助 ──

var errStoreDown = errors.New("connection refused")

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func fullCreditTable() model.CreditTable {
	return model.CreditTable{
		InPersonLocal:   intPtr(3),
		InPersonOutPark: intPtr(2),
		OnlineLocal:     intPtr(1),
		OnlineOutPark:   intPtr(0),
	}
}

func testSession() *model.Session {
	return &model.Session{
		Token:     "ork-token",
		UserID:    42,
		SessionID: "jti-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func newTestRepository(att repository.AttendanceRepository) *repository.Repository {
	return &repository.Repository{Attendance: att}
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		SessionSecret: "test-secret-key-for-unit-testing-2026",
		SessionTTL:    12 * time.Hour,
	})
}

// draftRecord 构造一条未提交记录；homePark 与 hostPark 相同即为本会
func draftRecord(playerID, homePark, hostPark int, inPerson bool) model.AttendanceRecord {
	return model.AttendanceRecord{
		Date:       "2026-10-10",
		HostParkID: hostPark,
		Player: model.Player{
			ID:         playerID,
			Persona:    fmt.Sprintf("Player %d", playerID),
			KingdomID:  3,
			HomeParkID: homePark,
		},
		ClassID:           5,
		ClassName:         "Archery",
		AttendingInPerson: inPerson,
	}
}

func nopLogger() *zap.Logger { return zap.NewNop() }
