// Package facility holds the static reference list of related facility
// sites. Pure data: nothing here fetches anything.
package facility

import "github.com/KenyYoshimura/event-aggregator-api/internal/domain"

// DefaultLinks returns the curated facility directory served alongside the
// aggregated events.
func DefaultLinks() []domain.FacilityLink {
	return []domain.FacilityLink{
		{
			Name:        "グランベリーモール",
			URL:         "https://granberry-mall.example.jp/",
			Description: "駅直結のショッピングモール。季節イベントと限定ショップ情報。",
		},
		{
			Name:        "シーサイドパーク水族館",
			URL:         "https://seaside-aquarium.example.jp/",
			Description: "企画展とナイトアクアリウムの開催案内。",
		},
		{
			Name:        "セントラルシネマ",
			URL:         "https://central-cinema.example.jp/",
			Description: "上映スケジュールと先行上映イベント。",
		},
		{
			Name:        "アトレマルシェ",
			URL:         "https://atre-marche.example.jp/",
			Description: "食品フロアの催事・ポップアップ出店情報。",
		},
		{
			Name:        "市民文化ホール",
			URL:         "https://city-culture-hall.example.jp/",
			Description: "コンサート・展示会の公演カレンダー。",
		},
	}
}
