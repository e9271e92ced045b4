package handler

import (
	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookshop/internal/application/book"
	"github.com/xiebiao/bookshop/internal/interface/http/dto"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/pkg/response"
)

// BookHandler 图书HTTP处理器
// 读接口公开，写接口需要馆员及以上角色(路由层RequireRole，用例层再校验一次)
type BookHandler struct {
	query  *appbook.ListBooksUseCase
	manage *appbook.ManageCatalogUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(query *appbook.ListBooksUseCase, manage *appbook.ManageCatalogUseCase) *BookHandler {
	return &BookHandler{query: query, manage: manage}
}

// ListBooks 图书列表
// @Summary      图书列表
// @Description  关键词搜索、分类过滤、排序、分页
// @Tags         图书
// @Produce      json
// @Param        page           query int    false "页码"
// @Param        page_size      query int    false "每页数量"
// @Param        keyword        query string false "关键词"
// @Param        category       query string false "分类"
// @Param        available_only query bool   false "只看可购买"
// @Param        sort_by        query string false "newest|title|price_asc|price_desc"
// @Success      200 {object} response.Response{data=appbook.ListBooksResponse}
// @Router       /api/v1/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	var req dto.ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.query.Execute(c.Request.Context(), appbook.ListBooksRequest{
		Page:          req.Page,
		PageSize:      req.PageSize,
		Keyword:       req.Keyword,
		Category:      req.Category,
		AvailableOnly: req.AvailableOnly,
		SortBy:        req.SortBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetBook 图书详情
// @Summary      图书详情
// @Tags         图书
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=appbook.BookDetail}
// @Router       /api/v1/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.query.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListAuthors 作者列表
// @Summary      作者列表
// @Tags         图书
// @Param        keyword query string false "按姓名模糊搜索"
// @Success      200 {object} response.Response{data=[]appbook.AuthorDTO}
// @Router       /api/v1/authors [get]
func (h *BookHandler) ListAuthors(c *gin.Context) {
	var req dto.ListAuthorsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	result, err := h.query.ListAuthors(c.Request.Context(), req.Keyword)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetAuthor 作者详情
// @Summary      作者详情
// @Tags         图书
// @Param        id path int true "作者ID"
// @Success      200 {object} response.Response{data=appbook.AuthorDTO}
// @Router       /api/v1/authors/{id} [get]
func (h *BookHandler) GetAuthor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.query.GetAuthor(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CreateBook 新建图书
// @Summary      新建图书
// @Tags         图书管理
// @Security     BearerAuth
// @Param        request body dto.BookRequest true "图书信息"
// @Success      200 {object} response.Response{data=appbook.BookDetail}
// @Router       /api/v1/books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req dto.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	result, err := h.manage.Publish(c.Request.Context(), middleware.MustGetCaller(c), toBookRequest(req))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateBook 修改图书(不含库存，库存走补货接口)
// @Summary      修改图书
// @Tags         图书管理
// @Security     BearerAuth
// @Param        id      path int             true "图书ID"
// @Param        request body dto.BookRequest true "图书信息"
// @Router       /api/v1/books/{id} [put]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	result, err := h.manage.Update(c.Request.Context(), middleware.MustGetCaller(c), id, toBookRequest(req))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteBook 删除图书
// @Summary      删除图书
// @Tags         图书管理
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Router       /api/v1/books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.manage.Delete(c.Request.Context(), middleware.MustGetCaller(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Restock 补货
// @Summary      补货
// @Tags         图书管理
// @Security     BearerAuth
// @Param        id      path int                true "图书ID"
// @Param        request body dto.RestockRequest true "补货数量"
// @Router       /api/v1/books/{id}/restock [post]
func (h *BookHandler) Restock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	result, err := h.manage.Restock(c.Request.Context(), middleware.MustGetCaller(c), id, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CreateAuthor 新建作者
// @Summary      新建作者
// @Tags         图书管理
// @Security     BearerAuth
// @Param        request body dto.AuthorRequest true "作者信息"
// @Router       /api/v1/authors [post]
func (h *BookHandler) CreateAuthor(c *gin.Context) {
	var req dto.AuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	result, err := h.manage.CreateAuthor(c.Request.Context(), middleware.MustGetCaller(c), toAuthorRequest(req))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func toBookRequest(req dto.BookRequest) appbook.BookRequest {
	return appbook.BookRequest{
		ISBN:        req.ISBN,
		Title:       req.Title,
		AuthorID:    req.AuthorID,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		IsAvailable: req.IsAvailable,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		PublishedAt: req.PublishedAt,
	}
}

// UpdateAuthor 修改作者
// @Summary      修改作者
// @Tags         图书管理
// @Security     BearerAuth
// @Param        id      path int               true "作者ID"
// @Param        request body dto.AuthorRequest true "作者信息"
// @Success      200 {object} response.Response{data=appbook.AuthorDTO}
// @Router       /api/v1/authors/{id} [put]
func (h *BookHandler) UpdateAuthor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	result, err := h.manage.UpdateAuthor(c.Request.Context(), middleware.MustGetCaller(c), id, toAuthorRequest(req))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteAuthor 删除作者
// @Summary      删除作者
// @Description  作者名下还有图书时返回40017
// @Tags         图书管理
// @Security     BearerAuth
// @Param        id path int true "作者ID"
// @Router       /api/v1/authors/{id} [delete]
func (h *BookHandler) DeleteAuthor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.manage.DeleteAuthor(c.Request.Context(), middleware.MustGetCaller(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func toAuthorRequest(req dto.AuthorRequest) appbook.AuthorRequest {
	return appbook.AuthorRequest{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Biography:   req.Biography,
		Nationality: req.Nationality,
	}
}
