package i18n

import "strings"

// Language 描述展示使用的语言，取值为简短的语言代码（en、zh）。
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageChinese Language = "zh"

	// DefaultLanguage 未配置时的默认语言。
	DefaultLanguage = LanguageEnglish
)

// Normalize 将配置中的语言值转换为统一的语言代码，空值与未知值回退到默认语言。
func Normalize(value string) Language {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "zh", "zh-cn", "zh_cn", "zh-hans", "cn", "chinese", "中文":
		return LanguageChinese
	case "en", "en-us", "en_us", "en-gb", "english":
		return LanguageEnglish
	default:
		return DefaultLanguage
	}
}

// Code 返回规范化后的语言代码。
func (l Language) Code() string {
	return string(Normalize(string(l)))
}

// DateTimeLayout is the full date-time-with-seconds layout for timestamps.
func (l Language) DateTimeLayout() string {
	switch Normalize(string(l)) {
	case LanguageChinese:
		return "2006年1月2日 15:04:05 MST"
	default:
		return "January 2, 2006 at 3:04:05 PM MST"
	}
}

// Labels holds the user-facing strings of the invocation view.
type Labels struct {
	Output      string
	Information string
	IR          string
	Status      string
	Created     string
	Started     string
	Stopped     string
	Running     string
	NoOutput    string
	Waiting     string
	Copied      string
	Filter      string
	Ended       string
	Hints       string
}

// Labels 返回对应语言的界面文案。
func (l Language) Labels() Labels {
	switch Normalize(string(l)) {
	case LanguageChinese:
		return Labels{
			Output:      "输出",
			Information: "信息",
			IR:          "IR",
			Status:      "状态",
			Created:     "创建",
			Started:     "开始",
			Stopped:     "结束",
			Running:     "运行中",
			NoOutput:    "（无输出）",
			Waiting:     "等待调用…",
			Copied:      "已复制输出",
			Filter:      "过滤",
			Ended:       "数据源已结束",
			Hints:       "tab 切换 • [/] 切换调用 • y 复制 • / 过滤 • enter 折叠 • r 原始 JSON • q 退出",
		}
	default:
		return Labels{
			Output:      "Output",
			Information: "Information",
			IR:          "IR",
			Status:      "Status",
			Created:     "Created",
			Started:     "Started",
			Stopped:     "Stopped",
			Running:     "Running",
			NoOutput:    "(no output)",
			Waiting:     "Waiting for an invocation…",
			Copied:      "Output copied",
			Filter:      "Filter",
			Ended:       "Source ended",
			Hints:       "tab switch • [/] display • y copy • / filter • enter fold • r raw JSON • q quit",
		}
	}
}
