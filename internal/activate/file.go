package activate

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/zx06/ccprofile/internal/credential"
)

// ReadCredentialFile 读取凭据文件，返回 (凭据, 是否存在, error)。
//
// 文件内容就是原始凭据（普通 token 或 OAuth JSON），与 Writer 写入的格式一致。
// 旧版本写出的 {"token": "..."} 包装仅在读取时兼容，返回内部 token。
func ReadCredentialFile(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", true, nil
	}
	if credential.Classify(content).IsOAuth() {
		return content, true, nil
	}
	if strings.HasPrefix(content, "{") {
		var legacy struct {
			Token *string `json:"token"`
		}
		if json.Unmarshal([]byte(content), &legacy) == nil && legacy.Token != nil {
			return *legacy.Token, true, nil
		}
	}
	return content, true, nil
}
