// Package model はドメインモデルを定義する。
package model

import "time"

// Product は商品を表す。
// MaSP は業務キー（商品コード）で、カート・注文の結合に使用する。
// Stock は在庫数。Details は管理者入力のHTML説明文（保存前にサニタイズ済み）。
type Product struct {
	ID        string
	MaSP      string
	Name      string
	Price     int64 // VND。小数は扱わない
	Stock     int
	Type      string // laptop, phone, tablet 等のカテゴリ
	Details   string
	ImageURL  string
	Spec      *Spec
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Spec は商品のスペックシートを表す。
// JSONB列にそのまま保存し、APIにもこの形で返すため、
// フィールド名は外部契約のキーに合わせてjsonタグを付与する。
// ram/storage/graphicsがひと段深い"type"に包まれているのは既存契約由来。
type Spec struct {
	General struct {
		Manufacturer string   `json:"manufacturer,omitempty"`
		Model        string   `json:"model,omitempty"`
		ReleaseYear  string   `json:"releaseYear,omitempty"`
		Color        []string `json:"color,omitempty"`
		Material     string   `json:"material,omitempty"`
		Warranty     string   `json:"warranty,omitempty"`
	} `json:"general"`
	Display struct {
		Size        string   `json:"size,omitempty"`
		Resolution  string   `json:"resolution,omitempty"`
		PanelType   string   `json:"panelType,omitempty"`
		RefreshRate string   `json:"refreshRate,omitempty"`
		Brightness  string   `json:"brightness,omitempty"`
		ColorGamut  string   `json:"colorGamut,omitempty"`
		Features    []string `json:"features,omitempty"`
	} `json:"display"`
	Processor struct {
		Brand     string `json:"brand,omitempty"`
		Series    string `json:"series,omitempty"`
		ModelName string `json:"modelName,omitempty"`
		Cores     string `json:"cores,omitempty"`
		Threads   string `json:"threads,omitempty"`
		Cache     string `json:"cache,omitempty"`
	} `json:"processor"`
	RAM struct {
		Type struct {
			Capacity string `json:"capacity,omitempty"`
			Type     string `json:"type,omitempty"`
			Speed    string `json:"speed,omitempty"`
		} `json:"type"`
	} `json:"ram"`
	Storage struct {
		Type struct {
			Type     string `json:"type,omitempty"`
			Capacity string `json:"capacity,omitempty"`
		} `json:"type"`
	} `json:"storage"`
	Graphics struct {
		Type struct {
			Type  string `json:"type,omitempty"`
			Brand string `json:"brand,omitempty"`
			Model string `json:"model,omitempty"`
		} `json:"type"`
	} `json:"graphics"`
	Battery struct {
		Capacity string `json:"capacity,omitempty"`
		Life     string `json:"life,omitempty"`
		Charging string `json:"charging,omitempty"`
	} `json:"battery"`
	OperatingSystem struct {
		Name string `json:"name,omitempty"`
	} `json:"operatingSystem"`
	Connectivity struct {
		WiFi      string   `json:"wifi,omitempty"`
		Bluetooth string   `json:"bluetooth,omitempty"`
		Ports     []string `json:"ports,omitempty"`
	} `json:"connectivity"`
	Camera struct {
		Front    string   `json:"front,omitempty"`
		Rear     string   `json:"rear,omitempty"`
		Features []string `json:"features,omitempty"`
	} `json:"camera"`
	ItemWeight struct {
		Weight string `json:"weight,omitempty"`
	} `json:"itemWeight"`
}
