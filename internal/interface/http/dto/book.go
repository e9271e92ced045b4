package dto

// BookRequest HTTP新建/修改图书请求
// validator tag说明:
// - required: 必填字段
// - max: 长度上限
// 价格用字符串传递("15.99"),避免浮点数精度问题,由应用层解析为分
type BookRequest struct {
	ISBN        string `json:"isbn" binding:"omitempty,max=20" example:"9787115428028"`
	Title       string `json:"title" binding:"required,max=200" example:"Go语言实战"`
	AuthorID    uint   `json:"author_id" binding:"required" example:"1"`
	Category    string `json:"category" binding:"required" example:"Technology"`
	Price       string `json:"price" binding:"required" example:"59.00"`
	Stock       int    `json:"stock" binding:"min=0,max=1000" example:"100"`
	IsAvailable *bool  `json:"is_available" example:"true"`
	Description string `json:"description" binding:"max=5000" example:"这是一本关于Go语言的实战书籍"`
	ImageURL    string `json:"image_url" binding:"omitempty,url,max=500" example:"https://example.com/cover.jpg"`
	PublishedAt string `json:"published_at" binding:"omitempty,datetime=2006-01-02" example:"2017-01-01"`
}

// RestockRequest 补货
type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=1000" example:"10"`
}

// ListAuthorsRequest 作者列表查询
type ListAuthorsRequest struct {
	Keyword string `form:"keyword" binding:"omitempty,max=100" example:"Orwell"`
}

// AuthorRequest 新建/修改作者
type AuthorRequest struct {
	FirstName   string `json:"first_name" binding:"required,max=50" example:"William"`
	LastName    string `json:"last_name" binding:"max=50" example:"Kennedy"`
	Biography   string `json:"biography" binding:"max=5000"`
	Nationality string `json:"nationality" binding:"max=50" example:"US"`
}

// ListBooksRequest HTTP图书列表请求
type ListBooksRequest struct {
	Page          int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	Keyword       string `form:"keyword" binding:"omitempty,max=100" example:"Go"`
	Category      string `form:"category" example:"Fiction"`
	AvailableOnly bool   `form:"available_only" example:"true"`
	SortBy        string `form:"sort_by" binding:"omitempty,oneof=newest title price_asc price_desc" example:"newest"`
}
