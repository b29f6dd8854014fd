package ork

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"maces/backend/config"
	pkgerrors "maces/backend/pkg/errors"
)

// 上游接口名（call 参数）
const (
	callAuthorize   = "Authorization/Authorize"
	callGetClasses  = "Attendance/GetClasses"
	callGetPlayer   = "Player/GetPlayer"
	callAddCredits  = "Attendance/AddAttendance"
	callGetOfficers = "Park/GetOfficers"
)

const statusSuccess = "Success"

// Client 上游活动管理 API 客户端
// 每次调用独立建立连接，token 作为请求参数而非请求头传递
type Client struct {
	baseURL       string
	appIdentifier string
	httpClient    *http.Client
	logger        *zap.Logger
}

// NewClient 创建上游客户端
func NewClient(cfg *config.OrkConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:       cfg.BaseURL,
		appIdentifier: cfg.AppIdentifier,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{DisableKeepAlives: true, Proxy: http.ProxyFromEnvironment},
		},
		logger: logger,
	}
}

// ── 请求构造 ──

// buildURL 生成上游请求地址：?request=&call=<call>&request[Key]=Value
func (c *Client) buildURL(call string, params map[string]string) string {
	parts := []string{"request=", "call=" + url.QueryEscape(call)}

	keys := make([]string, 0, len(params)+1)
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		parts = append(parts, url.QueryEscape("request["+k+"]")+"="+url.QueryEscape(params[k]))
	}
	if c.appIdentifier != "" {
		parts = append(parts, url.QueryEscape("request["+c.appIdentifier+"]")+"=")
	}

	return c.baseURL + "?" + strings.Join(parts, "&")
}

// call 发起 GET 请求并返回顶层 JSON 对象
// 网络错误 → ErrTransport；非 JSON 对象 → ErrProtocol
func (c *Client) call(ctx context.Context, call string, params map[string]string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(call, params), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: 构造请求失败: %v", pkgerrors.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", pkgerrors.ErrTransport, call, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("上游调用完成",
		zap.String("call", call),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: %s: HTTP %d", pkgerrors.ErrTransport, call, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %s: HTTP %d", pkgerrors.ErrProtocol, call, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: 读取响应失败: %v", pkgerrors.ErrTransport, call, err)
	}

	env, err := parseEnvelope(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", pkgerrors.ErrProtocol, call, err)
	}
	return env, nil
}

// ── 上游操作 ──

// Login 使用用户名密码换取上游 token
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	env, err := c.call(ctx, callAuthorize, map[string]string{
		"UserName": username,
		"Password": password,
	})
	if err != nil {
		return nil, err
	}
	if reason, ok := env.collectionStatus(); !ok {
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrAuthentication, reason)
	}

	var res LoginResult
	if err := env.decode(&res); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", pkgerrors.ErrProtocol, callAuthorize, err)
	}
	if res.Token == "" {
		return nil, fmt.Errorf("%w: %s: 缺少 Token", pkgerrors.ErrProtocol, callAuthorize)
	}
	return &res, nil
}

// ListClasses 获取启用中的职业列表，仅保留 ID 与名称
func (c *Client) ListClasses(ctx context.Context) ([]Class, error) {
	env, err := c.call(ctx, callGetClasses, map[string]string{"Active": "1"})
	if err != nil {
		return nil, err
	}
	if reason, ok := env.collectionStatus(); !ok {
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrAuthentication, reason)
	}

	var body struct {
		Classes []Class `json:"Classes"`
	}
	if err := env.decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", pkgerrors.ErrProtocol, callGetClasses, err)
	}
	if body.Classes == nil {
		body.Classes = []Class{}
	}
	return body.Classes, nil
}

// FetchPlayer 获取玩家信息
// 与其他集合类接口一致，校验 Status.Error
func (c *Client) FetchPlayer(ctx context.Context, token string, userID int) (*Player, error) {
	env, err := c.call(ctx, callGetPlayer, map[string]string{
		"Token":     token,
		"MundaneId": strconv.Itoa(userID),
	})
	if err != nil {
		return nil, err
	}
	if reason, ok := env.collectionStatus(); !ok {
		return nil, fmt.Errorf("%w: %s: %s", pkgerrors.ErrUpstreamRejection, callGetPlayer, reason)
	}

	var body struct {
		Player *Player `json:"Player"`
	}
	if err := env.decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", pkgerrors.ErrProtocol, callGetPlayer, err)
	}
	if body.Player == nil {
		return nil, fmt.Errorf("%w: %s: 缺少 Player", pkgerrors.ErrProtocol, callGetPlayer)
	}
	return body.Player, nil
}

// SubmitCredit 向上游提交一条积分记录
// 动作类接口的结果位于顶层 Error 字段；积分不挂靠日历活动，EventCalendarDetailId 固定为 0
func (c *Client) SubmitCredit(ctx context.Context, sub *CreditSubmission) (json.RawMessage, error) {
	env, err := c.call(ctx, callAddCredits, map[string]string{
		"Token":                 sub.Token,
		"ClassId":               strconv.Itoa(sub.ClassID),
		"MundaneId":             strconv.Itoa(sub.PlayerID),
		"Date":                  sub.Date,
		"Credits":               strconv.Itoa(sub.Credits),
		"ParkId":                strconv.Itoa(sub.HostParkID),
		"KingdomId":             strconv.Itoa(sub.PlayerKingdomID),
		"EventCalendarDetailId": "0",
	})
	if err != nil {
		return nil, err
	}
	if reason, ok := env.actionStatus(); !ok {
		return nil, fmt.Errorf("%w: could not enter credits: %s", pkgerrors.ErrUpstreamRejection, reason)
	}
	return env.raw, nil
}

// ListParkOfficers 获取分会官员列表
func (c *Client) ListParkOfficers(ctx context.Context, parkID int) ([]Officer, error) {
	env, err := c.call(ctx, callGetOfficers, map[string]string{"ParkId": strconv.Itoa(parkID)})
	if err != nil {
		return nil, err
	}
	if reason, ok := env.collectionStatus(); !ok {
		return nil, fmt.Errorf("%w: could not find park officers: %s", pkgerrors.ErrUpstreamRejection, reason)
	}

	var body struct {
		Officers []Officer `json:"Officers"`
	}
	if err := env.decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", pkgerrors.ErrProtocol, callGetOfficers, err)
	}
	return body.Officers, nil
}

// IsParkOfficer 判断玩家是否为该分会官员
func (c *Client) IsParkOfficer(ctx context.Context, parkID, playerID int) (bool, error) {
	officers, err := c.ListParkOfficers(ctx, parkID)
	if err != nil {
		return false, err
	}
	for _, o := range officers {
		if int(o.MundaneID) == playerID {
			return true, nil
		}
	}
	return false, nil
}
