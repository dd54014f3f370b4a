package golf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// decodePlayers はリーダーボードのレスポンスから選手の配列を取り出す。
// レスポンスは配列そのもの、または entries / leaderboard / players のいずれかに配列を持つオブジェクト。
func decodePlayers(body []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var players []map[string]any
		if err := json.Unmarshal(trimmed, &players); err != nil {
			return nil, fmt.Errorf("unmarshal leaderboard: %w", err)
		}
		return players, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, fmt.Errorf("unmarshal leaderboard: %w", err)
	}
	for _, key := range []string{"entries", "leaderboard", "players"} {
		raw, ok := wrapper[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		var players []map[string]any
		if err := json.Unmarshal(raw, &players); err != nil {
			return nil, fmt.Errorf("unmarshal leaderboard %s: %w", key, err)
		}
		return players, nil
	}
	return nil, errors.New("leaderboard has no player list")
}

// eventID は数値・文字列どちらのIDも文字列に変換する。
func eventID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// position は順位を整数に変換する。"T3" のようなタイ表記も受け付ける。
// 変換できない場合はfallback（上位からの通し番号）を返す。
func position(v any, fallback int) int {
	switch p := v.(type) {
	case float64:
		if p == math.Trunc(p) && p > 0 {
			return int(p)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(p), "T")); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// playerName は playerName → displayName → name の順に空でない名前を返す。
func playerName(p map[string]any) string {
	for _, key := range []string{"playerName", "displayName", "name"} {
		if s, ok := p[key].(string); ok && s != "" {
			return s
		}
	}
	return "—"
}

// firstPresent はkeysのうち最初にnull以外の値を持つものを文字列化して返す。
// いずれも無い場合はdefを返す。
func firstPresent(p map[string]any, def string, keys ...string) string {
	for _, key := range keys {
		v, ok := p[key]
		if !ok || v == nil {
			continue
		}
		return stringify(v)
	}
	return def
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
