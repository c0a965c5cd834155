package repository

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/reformcases/portfolio-api/internal/models"
)

// Demo identifiers referenced by the seeded account and cases.
const (
	DemoCompanyID = "demo-tokyo-reform"
	DemoUserEmail = "demo@reformcases.jp"
)

func strPtr(s string) *string { return &s }

// SeedDemoData loads the sample dashboard cases, the portal's contractor
// directory and one demo login into the in-memory stores.
func SeedDemoData(ctx context.Context, cases *MemoryCaseRepository, companies *MemoryCompanyRepository, users *MemoryUserRepository) error {
	publishedAt := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	demoCases := []models.Case{
		{
			CompanyID:   DemoCompanyID,
			Title:       "キッチン全面リフォーム:機能性とデザイン性を両立",
			Company:     "東京リフォーム株式会社",
			Location:    "東京都世田谷区",
			Category:    "キッチン",
			BeforeImage: "https://images.unsplash.com/photo-1556909114-f6e7ad7d3136?w=400&h=300&fit=crop",
			AfterImage:  strPtr("https://images.unsplash.com/photo-1556909144-f5220ba4815c?w=400&h=300&fit=crop"),
			Description: "築30年のマンションキッチンを最新設備で一新。収納力アップと清掃性を重視した設計。",
			WorkPeriod:  "5日間",
			Status:      models.StatusPublished,
			CreatedAt:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			PublishedAt: &publishedAt,
		},
		{
			CompanyID:     DemoCompanyID,
			Title:         "和室から洋室への大変身:モダンリビング空間",
			Company:       "東京リフォーム株式会社",
			Location:      "大阪府大阪市",
			Category:      "居室",
			BeforeImage:   "https://images.unsplash.com/photo-1586023492125-27b2c045efd7?w=400&h=300&fit=crop",
			Description:   "伝統的な和室を現代的な洋室に変更。フローリング・クロス・照明すべて新調予定。",
			WorkPeriod:    "7日間",
			Status:        models.StatusScheduled,
			CreatedAt:     time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			ScheduledDate: strPtr("2024-01-25"),
			ReminderTime:  strPtr("09:00"),
		},
		{
			CompanyID:   DemoCompanyID,
			Title:       "バリアフリー浴室リフォーム:安全性と快適性を追求",
			Company:     "東京リフォーム株式会社",
			Location:    "福岡県福岡市",
			Category:    "浴室",
			BeforeImage: "https://images.unsplash.com/photo-1552321554-5fefe8c9ef14?w=400&h=300&fit=crop",
			AfterImage:  strPtr("https://images.unsplash.com/photo-1620626011761-996317b8d101?w=400&h=300&fit=crop"),
			Description: "高齢者対応のバリアフリー浴室。手すり・段差解消・滑り止め加工を施工完了。内容確認中。",
			WorkPeriod:  "4日間",
			Status:      models.StatusDraft,
			CreatedAt:   time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		},
	}
	for i := range demoCases {
		if err := cases.Create(ctx, &demoCases[i]); err != nil {
			return err
		}
	}

	directory := []models.Company{
		{
			ID:          "yamada-koumuten",
			Name:        "株式会社山田工務店",
			Rating:      4.8,
			ReviewCount: 127,
			Description: "創業50年の信頼と実績。お客様の理想の住まいづくりをサポートします。",
			Specialties: models.Specialties{"総合リフォーム", "キッチン", "バスルーム"},
			Location:    "東京都渋谷区",
			CaseCount:   45,
			Image:       "https://images.unsplash.com/photo-1560448204-e02f11c3d0e2?w=400&h=300&fit=crop",
		},
		{
			ID:          "tanaka-reform",
			Name:        "田中リフォーム",
			Rating:      4.6,
			ReviewCount: 89,
			Description: "キッチンリフォーム専門店。最新設備で快適なキッチンライフをご提案します。",
			Specialties: models.Specialties{"キッチンリフォーム", "システムキッチン"},
			Location:    "大阪府大阪市",
			CaseCount:   32,
			Image:       "https://images.unsplash.com/photo-1556909144-f5220ba4815c?w=400&h=300&fit=crop",
		},
		{
			ID:          "sato-kensetsu",
			Name:        "佐藤建設",
			Rating:      4.7,
			ReviewCount: 156,
			Description: "外装リフォームのプロフェッショナル。美しく長持ちする外壁・屋根工事を行います。",
			Specialties: models.Specialties{"外装リフォーム", "外壁塗装", "屋根工事"},
			Location:    "愛知県名古屋市",
			CaseCount:   67,
			Image:       "https://images.unsplash.com/photo-1605276373954-0c4a0dac5cc0?w=400&h=300&fit=crop",
		},
		{
			ID:          "suzuki-jutaku",
			Name:        "鈴木住宅設備",
			Rating:      4.5,
			ReviewCount: 73,
			Description: "水回りリフォームの専門家。快適で機能的な水回り空間を提供します。",
			Specialties: models.Specialties{"バスルーム", "トイレ", "洗面所"},
			Location:    "神奈川県横浜市",
			CaseCount:   28,
			Image:       "https://images.unsplash.com/photo-1584622781564-1d987fc7c6d3?w=400&h=300&fit=crop",
		},
	}
	for i := range directory {
		if err := companies.Create(ctx, &directory[i]); err != nil {
			return err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	demoUser := models.User{
		Email:        DemoUserEmail,
		PasswordHash: string(hash),
		CompanyName:  "東京リフォーム株式会社",
		CompanyID:    DemoCompanyID,
		Active:       true,
	}
	return users.Create(ctx, &demoUser)
}
