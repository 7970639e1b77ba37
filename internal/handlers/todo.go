package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jchyng/todo-list/internal/auth"
	"github.com/jchyng/todo-list/internal/dto"
	"github.com/jchyng/todo-list/internal/repo"
	"github.com/jchyng/todo-list/internal/schedule"
	"github.com/jchyng/todo-list/internal/service"
	"github.com/jchyng/todo-list/internal/utils"
)

type TodoHandler struct {
	svc *service.TodoService
	loc *time.Location
}

func NewTodoHandler(svc *service.TodoService, loc *time.Location) *TodoHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TodoHandler{svc: svc, loc: loc}
}

// Create godoc
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      dto.CreateTodoRequest  true  "Todo body"
// @Success      201   {object}  dto.Envelope{data=dto.TodoResponse}
// @Failure      400   {object}  dto.Envelope
// @Router       /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	ownerID := auth.UserIDFromContext(c)
	var req dto.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Err("validation failed: title is required"))
		return
	}

	t, err := h.svc.Create(c.Request.Context(), ownerID, req.Title, req.Description, req.DueDate.Ptr())
	if err != nil {
		h.respondError(c, "TODO_CREATE", ownerID, err, dto.MsgTodoCreateFailed)
		return
	}
	c.JSON(http.StatusCreated, dto.OK(dto.FromTodo(t)))
}

// List godoc
// @Summary      List todos with optional filters
// @Tags         todos
// @Produce      json
// @Security     CookieAuth
// @Param        completed  query  bool    false  "Filter by completion state"
// @Param        startDate  query  string  false  "Due-date range start (YYYY-MM-DD)"
// @Param        endDate    query  string  false  "Due-date range end (YYYY-MM-DD)"
// @Param        sortBy     query  string  false  "createdAt | updatedAt | title | dueDate"
// @Param        sortOrder  query  string  false  "asc | desc"
// @Success      200  {object}  dto.Envelope{data=dto.ListTodosResponse}
// @Failure      400  {object}  dto.Envelope
// @Router       /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	ownerID := auth.UserIDFromContext(c)
	f, ok := h.parseListFilter(c)
	if !ok {
		return
	}

	list, err := h.svc.List(c.Request.Context(), ownerID, f)
	if err != nil {
		h.respondError(c, "TODO_FETCH", ownerID, err, dto.MsgTodoFetchFailed)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.ListTodosResponse{Todos: dto.FromTodos(list), Count: len(list)}))
}

func (h *TodoHandler) parseListFilter(c *gin.Context) (repo.ListFilter, bool) {
	var f repo.ListFilter

	if raw := c.Query("completed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.Err("validation failed: completed must be true or false"))
			return f, false
		}
		f.Completed = &v
	}

	f.SortBy = c.Query("sortBy")
	switch c.Query("sortOrder") {
	case "", "desc":
		f.SortAsc = false
	case "asc":
		f.SortAsc = true
	default:
		c.JSON(http.StatusBadRequest, dto.Err("validation failed: sortOrder must be asc or desc"))
		return f, false
	}

	startRaw, endRaw := c.Query("startDate"), c.Query("endDate")
	if startRaw != "" && endRaw != "" {
		start, err1 := time.ParseInLocation("2006-01-02", startRaw, h.loc)
		end, err2 := time.ParseInLocation("2006-01-02", endRaw, h.loc)
		if err1 != nil || err2 != nil {
			c.JSON(http.StatusBadRequest, dto.Err("validation failed: dates must be YYYY-MM-DD"))
			return f, false
		}
		endOfDay := schedule.DayEnd(end, h.loc)
		f.DueFrom = &start
		f.DueTo = &endOfDay
	}
	return f, true
}

// ListView godoc
// @Summary      Ordered flat list view
// @Description  Incomplete overdue todos are hidden here; they only
// @Description  surface on the calendar as overdue.
// @Tags         todos
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.Envelope{data=dto.ListViewResponse}
// @Failure      500  {object}  dto.Envelope
// @Router       /todos/list [get]
func (h *TodoHandler) ListView(c *gin.Context) {
	ownerID := auth.UserIDFromContext(c)
	view, err := h.svc.ListView(c.Request.Context(), ownerID, time.Now())
	if err != nil {
		h.respondError(c, "LIST_TODOS_FETCH", ownerID, err, dto.MsgTodoFetchFailed)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.ListViewResponse{
		Todos: dto.FromTodos(view.Todos),
		Count: len(view.Todos),
		Stats: view.Stats,
	}))
}

// Calendar godoc
// @Summary      Calendar view grouped by day
// @Description  Returns todos bucketed by calendar day (completion day
// @Description  for completed todos, due day otherwise) and month stats.
// @Tags         todos
// @Produce      json
// @Security     CookieAuth
// @Param        startDate  query  string  true   "Window start (YYYY-MM-DD, inclusive)"
// @Param        endDate    query  string  true   "Window end (YYYY-MM-DD, inclusive)"
// @Param        year       query  int     false  "Statistics scope year"
// @Param        month      query  int     false  "Statistics scope month (1-12)"
// @Success      200  {object}  dto.Envelope{data=dto.CalendarResponse}
// @Failure      400  {object}  dto.Envelope
// @Router       /todos/calendar [get]
func (h *TodoHandler) Calendar(c *gin.Context) {
	ownerID := auth.UserIDFromContext(c)

	startRaw, endRaw := c.Query("startDate"), c.Query("endDate")
	if startRaw == "" || endRaw == "" {
		c.JSON(http.StatusBadRequest, dto.Err("validation failed: startDate and endDate are required"))
		return
	}
	start, err1 := time.ParseInLocation("2006-01-02", startRaw, h.loc)
	end, err2 := time.ParseInLocation("2006-01-02", endRaw, h.loc)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, dto.Err("validation failed: dates must be YYYY-MM-DD"))
		return
	}

	year, month, ok := parseMonthScope(c)
	if !ok {
		return
	}

	view, err := h.svc.CalendarView(c.Request.Context(), ownerID, time.Now(), start, end, year, month)
	if err != nil {
		h.respondError(c, "CALENDAR_TODOS_FETCH", ownerID, err, dto.MsgTodoFetchFailed)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.FromCalendar(view, startRaw, endRaw)))
}

func parseMonthScope(c *gin.Context) (int, time.Month, bool) {
	yearRaw, monthRaw := c.Query("year"), c.Query("month")
	if yearRaw == "" || monthRaw == "" {
		return 0, 0, true
	}
	year, err1 := strconv.Atoi(yearRaw)
	month, err2 := strconv.Atoi(monthRaw)
	if err1 != nil || err2 != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, dto.Err("validation failed: year and month must be numeric, month 1-12"))
		return 0, 0, false
	}
	return year, time.Month(month), true
}

// GetByID godoc
// @Summary      Get a todo by ID
// @Tags         todos
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      int  true  "Todo ID"
// @Success      200  {object}  dto.Envelope{data=dto.TodoResponse}
// @Failure      400  {object}  dto.Envelope
// @Failure      404  {object}  dto.Envelope
// @Router       /todos/{id} [get]
func (h *TodoHandler) GetByID(c *gin.Context) {
	ownerID := auth.UserIDFromContext(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), ownerID, id)
	if err != nil {
		h.respondError(c, "TODO_GET_BY_ID", ownerID, err, dto.MsgTodoFetchFailed)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.FromTodo(t)))
}

// Update godoc
// @Summary      Update a todo
// @Description  Any subset of fields; a null dueDate clears the deadline.
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id    path      int  true  "Todo ID"
// @Param        body  body      dto.UpdateTodoRequest  true  "Partial update"
// @Success      200   {object}  dto.Envelope{data=dto.TodoResponse}
// @Failure      400   {object}  dto.Envelope
// @Failure      404   {object}  dto.Envelope
// @Router       /todos/{id} [put]
func (h *TodoHandler) Update(c *gin.Context) {
	ownerID := auth.UserIDFromContext(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Err("validation failed: malformed request body"))
		return
	}

	t, err := h.svc.Update(c.Request.Context(), ownerID, id, service.UpdatePatch{
		Title:       req.Title,
		Description: req.Description,
		IsDone:      req.Completed,
		DueAt:       req.DueDate.Ptr(),
		SetDue:      req.DueDate.Present(),
	})
	if err != nil {
		h.respondError(c, "TODO_UPDATE", ownerID, err, dto.MsgTodoUpdateFailed)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.FromTodo(t)))
}

// Toggle godoc
// @Summary      Toggle completion
// @Tags         todos
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      int  true  "Todo ID"
// @Success      200  {object}  dto.Envelope{data=dto.TodoResponse}
// @Failure      400  {object}  dto.Envelope
// @Failure      404  {object}  dto.Envelope
// @Router       /todos/{id} [patch]
func (h *TodoHandler) Toggle(c *gin.Context) {
	ownerID := auth.UserIDFromContext(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.Toggle(c.Request.Context(), ownerID, id)
	if err != nil {
		h.respondError(c, "TODO_TOGGLE", ownerID, err, dto.MsgTodoUpdateFailed)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.FromTodo(t)))
}

// Delete godoc
// @Summary      Soft-delete a todo
// @Description  The deleted todo is returned so clients can remove it
// @Description  optimistically.
// @Tags         todos
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      int  true  "Todo ID"
// @Success      200  {object}  dto.Envelope{data=dto.TodoResponse}
// @Failure      400  {object}  dto.Envelope
// @Failure      404  {object}  dto.Envelope
// @Router       /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	ownerID := auth.UserIDFromContext(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.Delete(c.Request.Context(), ownerID, id)
	if err != nil {
		h.respondError(c, "TODO_DELETE", ownerID, err, dto.MsgTodoDeleteFailed)
		return
	}
	c.JSON(http.StatusOK, dto.OKMessage(dto.FromTodo(t), "todo deleted"))
}

// Search godoc
// @Summary      Search todos by query
// @Tags         todos
// @Produce      json
// @Security     CookieAuth
// @Param        q    query     string  true  "Search query (title/description)"
// @Success      200  {object}  dto.Envelope{data=dto.ListTodosResponse}
// @Failure      500  {object}  dto.Envelope
// @Router       /todos/search [get]
func (h *TodoHandler) Search(c *gin.Context) {
	ownerID := auth.UserIDFromContext(c)
	list, err := h.svc.Search(c.Request.Context(), ownerID, c.Query("q"))
	if err != nil {
		h.respondError(c, "TODO_SEARCH", ownerID, err, dto.MsgTodoFetchFailed)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.ListTodosResponse{Todos: dto.FromTodos(list), Count: len(list)}))
}

// respondError maps service errors onto the fixed taxonomy. Storage
// detail is logged server-side only, with the owner id masked.
func (h *TodoHandler) respondError(c *gin.Context, op string, ownerID int64, err error, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.Err(dto.MsgNotFound))
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, dto.Err(verr.Error()))
	default:
		log.Printf("[%s] owner=%s: %v", op, utils.MaskOwnerID(ownerID), err)
		c.JSON(http.StatusInternalServerError, dto.Err(fallback))
	}
}

func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, dto.Err(dto.MsgInvalidID))
		return 0, false
	}
	return id, true
}
