package pipeline

import "regexp"

// The labelled form must be tried first: the bare form also matches inside
// it and would otherwise be the only pattern ever used.
var (
	labelledHandle = regexp.MustCompile(`抖音号：([a-zA-Z0-9._]+)\s*\(douyin\)`)
	bareHandle     = regexp.MustCompile(`([a-zA-Z0-9._]+)\s*\(douyin\)`)
)

// ExtractDouyinHandle pulls the Douyin handle out of a free-text Account
// cell such as "抖音号：91811174783(douyin)" or "ms.ashlyn_(douyin)".
func ExtractDouyinHandle(account string) (string, bool) {
	if m := labelledHandle.FindStringSubmatch(account); m != nil {
		return m[1], true
	}
	if m := bareHandle.FindStringSubmatch(account); m != nil {
		return m[1], true
	}
	return "", false
}
