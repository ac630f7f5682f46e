package dahua

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// PasswordHash はレルムとパスワードを結びつけた1段目のハッシュを返す
//
//	upper(hex(MD5(username:realm:password)))
func PasswordHash(username, realm, password string) string {
	return md5Upper(username + ":" + realm + ":" + password)
}

// LoginHash はサーバーが発行した乱数で1段目のハッシュを塩付けした値を返す。
// 認証付きログインの password フィールドにはこの値を送る
//
//	upper(hex(MD5(username:random:PasswordHash(...))))
func LoginHash(username, realm, random, password string) string {
	return md5Upper(username + ":" + random + ":" + PasswordHash(username, realm, password))
}

func md5Upper(s string) string {
	sum := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
