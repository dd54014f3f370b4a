package notes

import (
	"encoding/hex"
	"strings"

	"github.com/nbd-wtf/go-nostr/nip19"
)

// npubPrefix はNIP-19公開鍵アドレスのプレフィックス。
const npubPrefix = "npub1"

// ResolvePubKey はNIP-19アドレス（npub1...）を64文字の16進公開鍵に変換する。
// プレフィックス不一致、チェックサム不正、npub以外の種別、長さ不正の場合は ("", false) を返す。
// パニックは起こさない。
func ResolvePubKey(npub string) (string, bool) {
	if !strings.HasPrefix(npub, npubPrefix) {
		return "", false
	}

	prefix, value, err := nip19.Decode(npub)
	if err != nil || prefix != "npub" {
		return "", false
	}

	pubkey, ok := value.(string)
	if !ok || len(pubkey) != 64 {
		return "", false
	}
	if _, err := hex.DecodeString(pubkey); err != nil {
		return "", false
	}

	return strings.ToLower(pubkey), true
}
