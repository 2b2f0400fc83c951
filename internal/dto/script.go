package dto

// ── scripts ──

// CreateScriptRequest new marketplace listing
type CreateScriptRequest struct {
	Title       string   `json:"title"        binding:"required,min=3,max=120"`
	Description string   `json:"description"  binding:"required,min=10,max=20000"`
	Category    string   `json:"category"     binding:"required,max=50"`
	Framework   string   `json:"framework"    binding:"omitempty,max=50"`
	PriceCents  int64    `json:"price_cents"  binding:"min=0,max=10000000"`
	Currency    string   `json:"currency"     binding:"omitempty,len=3,alpha"`
	StoreURL    string   `json:"store_url"    binding:"omitempty,url,max=500"`
	VideoURL    string   `json:"video_url"    binding:"omitempty,url,max=500"`
	CoverImage  string   `json:"cover_image"  binding:"omitempty,url,max=500"`
	Images      []string `json:"images"       binding:"omitempty,max=10,dive,url,max=500"`
	Tags        []string `json:"tags"         binding:"omitempty,max=10,dive,min=1,max=30"`
}

// UpdateScriptRequest partial listing edit; approved and rejected listings go back to review
type UpdateScriptRequest struct {
	Title       *string   `json:"title"        binding:"omitempty,min=3,max=120"`
	Description *string   `json:"description"  binding:"omitempty,min=10,max=20000"`
	Category    *string   `json:"category"     binding:"omitempty,max=50"`
	Framework   *string   `json:"framework"    binding:"omitempty,max=50"`
	PriceCents  *int64    `json:"price_cents"  binding:"omitempty,min=0,max=10000000"`
	Currency    *string   `json:"currency"     binding:"omitempty,len=3,alpha"`
	StoreURL    *string   `json:"store_url"    binding:"omitempty,url,max=500"`
	VideoURL    *string   `json:"video_url"    binding:"omitempty,url,max=500"`
	CoverImage  *string   `json:"cover_image"  binding:"omitempty,url,max=500"`
	Images      *[]string `json:"images"       binding:"omitempty,max=10,dive,url,max=500"`
	Tags        *[]string `json:"tags"         binding:"omitempty,max=10,dive,min=1,max=30"`
}

// ScriptListRequest public catalogue query
type ScriptListRequest struct {
	PaginationRequest
	Keyword   string `form:"keyword"   binding:"omitempty,max=50"`
	Category  string `form:"category"  binding:"omitempty,max=50"`
	Framework string `form:"framework" binding:"omitempty,max=50"`
	SellerID  string `form:"seller_id" binding:"omitempty,uuid"`
	MinPrice  *int64 `form:"min_price" binding:"omitempty,min=0"`
	MaxPrice  *int64 `form:"max_price" binding:"omitempty,min=0"`
	Sort      string `form:"sort"      binding:"omitempty,oneof=newest oldest price_asc price_desc title"`
}

// ScriptResponse listing detail
type ScriptResponse struct {
	ID          string   `json:"id"`
	SellerID    string   `json:"seller_id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Framework   string   `json:"framework"`
	PriceCents  int64    `json:"price_cents"`
	Currency    string   `json:"currency"`
	StoreURL    string   `json:"store_url"`
	VideoURL    string   `json:"video_url"`
	CoverImage  string   `json:"cover_image"`
	Images      []string `json:"images"`
	Tags        []string `json:"tags"`
	Featured    bool     `json:"featured"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	ReviewInfo
}
