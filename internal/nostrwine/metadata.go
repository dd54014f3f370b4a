package nostrwine

import (
	"encoding/json"

	"github.com/bozentka/labs-site/internal/model"
)

// ParseMetadata はkind 0イベントのcontent（JSON文字列）からプロフィールを抽出する。
// name・picture・nip05のうち文字列型のものだけを採用し、それ以外のフィールドは無視する。
// JSONとして解釈できない場合は (空のProfile, false) を返す。
func ParseMetadata(content string) (model.Profile, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return model.Profile{}, false
	}

	var p model.Profile
	if v, ok := raw["name"].(string); ok {
		p.Name = v
	}
	if v, ok := raw["picture"].(string); ok {
		p.Picture = v
	}
	if v, ok := raw["nip05"].(string); ok {
		p.Nip05 = v
	}
	return p, true
}
