package service

import (
	"fmt"
	"strings"

	"monsurface-assistant/internal/catalog"
)

// InstructionText is the help text shown whenever a message cannot be
// turned into a catalog answer.
const InstructionText = `🍀瑰貝鈺AI建材小幫手服務指南☘️

1️⃣ 查詢建材資訊：
請輸入品牌與型號，
例如：「品牌 ABC 型號 123」，
或：「ABC 123」皆可。

可查詢品牌：
Formica富美家、Lavi樂維、
Donacai多娜彩、萊適寶、松耐特、
AICA愛卡、Melatone摩拉頓、
科彰、吉祥、華旗、華槶、
KEDING科定

2️⃣ 獲取熱門建材推薦：
請輸入「熱門主推」
或利用以下連結
https://portaly.cc/Monsurface/pages/hot_catalog
查看主打建材資訊。

3️⃣ 查詢技術資訊：
請輸入「技術資訊」
或利用以下連結
https://portaly.cc/Monsurface/pages/technical
查看建材品牌的技術資料。

4️⃣ 瑰貝鈺傳送門：
利用以下連結
https://portaly.cc/Monsurface
查看各品牌綜合資訊。`

const (
	// DeniedText answers requesters without access.
	DeniedText = "❌ 您沒有查詢權限，請聯絡管理員開通權限。"
	// NarrowQueryText replaces an answer the language model could not produce.
	NarrowQueryText = "⚠️ 抱歉，目前無法整理建材資訊，請縮小查詢範圍（例如加上品牌、型號或色名）後再試一次。"
	// CatalogUnavailableText answers when the catalog cannot be searched.
	CatalogUnavailableText = "⚠️ 建材資料庫暫時無法使用，請稍後再試。"

	// HotCommand and TechCommand are the shortcut messages.
	HotCommand  = "熱門主推"
	TechCommand = "技術資訊"
)

// Shortcuts holds the links returned by the shortcut commands.
type Shortcuts struct {
	HotURL  string
	TechURL string
}

// reply returns the shortcut answer for message, if message is a shortcut.
func (s Shortcuts) reply(message string) (string, bool) {
	switch message {
	case HotCommand:
		url := s.HotURL
		if url == "" {
			url = "⚠️ 未設定熱門主推連結"
		}
		return "📌 熱門主推建材資訊\n請點擊以下連結查看：\n" + url, true
	case TechCommand:
		url := s.TechURL
		if url == "" {
			url = "⚠️ 未設定技術資訊連結"
		}
		return "🔧 技術資訊總覽\n請點擊以下連結查看：\n" + url, true
	}
	return "", false
}

// TabularListing renders records as one brand/model/color line each.
func TabularListing(records []catalog.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "共找到 %d 筆符合的建材，請加上品牌、型號或色名縮小範圍：\n", len(records))
	for i, r := range records {
		fmt.Fprintf(&sb, "%d. %s | %s | %s\n", i+1, orDash(r.Brand), orDash(r.Model), orDash(r.Color))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
