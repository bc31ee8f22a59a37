package events

import (
	"encoding/json"
	"io"
	"strings"

	"brane-view/internal/logger"

	"github.com/tidwall/pretty"
)

// DefaultUpdateLogPath 默认的更新队列日志文件路径。
const DefaultUpdateLogPath = "logs/updates.log"

// log 复用全局 logger，标记事件组件。
var log = logger.Named("events")

// NewQueueLogger 为队列创建独立的文件 logger；path 为空或打开失败时回退到全局 logger。
func NewQueueLogger(component, path string) (*logger.LogEntry, io.Closer) {
	if path == "" {
		return logger.Named(component), nil
	}
	entry, closer, _, err := logger.SetupComponentFile(component, path)
	if err != nil {
		log.Warnf("failed to set up %s log file (%s): %v", component, path, err)
		return logger.Named(component), nil
	}
	return entry, closer
}

// encodePayload 将载荷编码为缩进 JSON；字符串原样输出，若其内容本身是 JSON 则同样格式化。
func encodePayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return ""
	case string:
		trimmed := strings.TrimSpace(v)
		if json.Valid([]byte(trimmed)) && (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) {
			return strings.TrimSpace(string(pretty.Pretty([]byte(trimmed))))
		}
		return v
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(pretty.Pretty(data)))
}
