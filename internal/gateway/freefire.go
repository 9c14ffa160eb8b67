package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/iliyamo/freefire-tournaments/internal/model"
)

// FreeFireClient looks up players on the region info API.
type FreeFireClient struct {
	BaseURL string
	Client  *http.Client
}

func NewFreeFireClient(baseURL string, client *http.Client) *FreeFireClient {
	return &FreeFireClient{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

type playerInfoResponse struct {
	BasicInfo *struct {
		Nickname string          `json:"nickname"`
		Level    int             `json:"level"`
		Exp      int             `json:"exp"`
		AvatarID json.RawMessage `json:"avatarId"`
		Liked    int             `json:"liked"`
	} `json:"basicInfo"`
	ClanBasicInfo *struct {
		ClanName  string `json:"clanName"`
		ClanLevel int    `json:"clanLevel"`
	} `json:"clanBasicInfo"`
	Liked int `json:"liked"`
}

// Lookup calls GET {base}/player-info?uid=&region=. A non-200 answer or a
// body without basicInfo means the UID is unknown in that region.
func (c *FreeFireClient) Lookup(ctx context.Context, uid, region string) (model.PlayerInfo, error) {
	q := url.Values{}
	q.Set("uid", uid)
	q.Set("region", strings.ToLower(region))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/player-info?"+q.Encode(), nil)
	if err != nil {
		return model.PlayerInfo{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return model.PlayerInfo{}, classify("player lookup", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return model.PlayerInfo{}, classify("player lookup", err)
	}
	if resp.StatusCode >= 500 {
		return model.PlayerInfo{}, fmt.Errorf("%w: player lookup returned %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return model.PlayerInfo{}, ErrPlayerNotFound
	}

	var out playerInfoResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return model.PlayerInfo{}, fmt.Errorf("%w: player lookup: %v", ErrUnavailable, err)
	}
	if out.BasicInfo == nil {
		return model.PlayerInfo{}, ErrPlayerNotFound
	}

	info := model.PlayerInfo{
		UID:       uid,
		Region:    strings.ToUpper(region),
		Nickname:  out.BasicInfo.Nickname,
		Level:     out.BasicInfo.Level,
		Exp:       out.BasicInfo.Exp,
		AvatarID:  strings.Trim(string(out.BasicInfo.AvatarID), `"`),
		Liked:     out.Liked,
		ClanName:  "No Guild",
		ClanLevel: 1,
	}
	if info.Nickname == "" {
		info.Nickname = "Unknown"
	}
	if info.Level == 0 {
		info.Level = 1
	}
	if info.Liked == 0 {
		info.Liked = out.BasicInfo.Liked
	}
	if out.ClanBasicInfo != nil && out.ClanBasicInfo.ClanName != "" {
		info.ClanName = out.ClanBasicInfo.ClanName
		info.ClanLevel = out.ClanBasicInfo.ClanLevel
	}
	return info, nil
}

// StaticLookup resolves players from a fixed table. Lookups of any other
// UID report ErrPlayerNotFound.
type StaticLookup struct {
	Players map[string]model.PlayerInfo
}

func (s StaticLookup) Lookup(_ context.Context, uid, region string) (model.PlayerInfo, error) {
	info, ok := s.Players[uid]
	if !ok {
		return model.PlayerInfo{}, ErrPlayerNotFound
	}
	info.UID = uid
	if info.Region == "" {
		info.Region = strings.ToUpper(region)
	}
	return info, nil
}
