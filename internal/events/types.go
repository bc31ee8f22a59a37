package events

import (
	"time"

	"brane-view/internal/invocation"
)

// Kind 区分首次展示与后续更新，对应 display_data / update_display_data。
type Kind string

const (
	KindDisplay Kind = "display"
	KindUpdate  Kind = "update"
)

// Update 是队列中传递的唯一消息格式：某个 display 的一次记录快照。
type Update struct {
	DisplayID string            `json:"display_id"`
	Kind      Kind              `json:"kind"`
	Record    invocation.Record `json:"invocation"`
	Timestamp time.Time         `json:"ts"`
	// Source 标记来源（stream、poll、replay），仅用于日志。
	Source string `json:"-"`
}

// FromFragment 将解析出的片段转换为 Update，Timestamp 取当前时间。
func FromFragment(frag invocation.Fragment, source string) Update {
	kind := KindDisplay
	if frag.Update {
		kind = KindUpdate
	}
	return Update{
		DisplayID: frag.DisplayID,
		Kind:      kind,
		Record:    frag.Record,
		Timestamp: time.Now(),
		Source:    source,
	}
}

// Fragment 还原为渲染层使用的片段。
func (u Update) Fragment() invocation.Fragment {
	return invocation.Fragment{
		DisplayID: u.DisplayID,
		Update:    u.Kind == KindUpdate,
		Record:    u.Record,
	}
}
