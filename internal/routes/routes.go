package routes

import (
	"net/http"

	"github.com/readium/readium/internal/app"
	"github.com/readium/readium/internal/handler"
	"github.com/readium/readium/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.TokenService, app.Cfg)
	blog := handler.NewBlogHandler(app.BlogService)
	comment := handler.NewCommentHandler(app.CommentService)
	reply := handler.NewReplyHandler(app.ReplyService)
	like := handler.NewLikeHandler(app.LikeService)
	following := handler.NewFollowingHandler(app.FollowingService)
	tag := handler.NewTagHandler(app.TagService)
	search := handler.NewSearchHandler(app.BlogService)
	dashboard := handler.NewDashboardHandler(app.DashboardService)
	user := handler.NewUserHandler(app.UserService)

	mux := http.NewServeMux()

	rateLimited := middleware.RateLimitAuth()
	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(h)
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Auth (credential endpoints rate limited)
	mux.Handle("POST /api/v1/auth/register", rateLimited(http.HandlerFunc(auth.Register)))
	mux.Handle("POST /api/v1/auth/login", rateLimited(http.HandlerFunc(auth.Login)))
	mux.Handle("GET /api/v1/auth/login/google", rateLimited(http.HandlerFunc(auth.GoogleAuth)))
	mux.Handle("GET /api/v1/auth/google/callback", rateLimited(http.HandlerFunc(auth.GoogleCallback)))
	mux.Handle("POST /api/v1/auth/verify-email", authed(auth.VerifyEmail))
	mux.Handle("POST /api/v1/auth/forgot-password", rateLimited(middleware.RequireAuth(http.HandlerFunc(auth.ForgotPassword))))
	mux.Handle("PATCH /api/v1/auth/reset-password", rateLimited(middleware.RequireAuth(http.HandlerFunc(auth.ResetPassword))))
	mux.Handle("POST /api/v1/auth/logout", authed(auth.Logout))
	mux.HandleFunc("POST /api/v1/auth/refresh-token", auth.Refresh)

	// Blogs
	mux.Handle("POST /api/v1/blogs", authed(blog.Create))
	mux.Handle("GET /api/v1/blogs/{id}", authed(blog.Get))
	mux.Handle("PATCH /api/v1/blogs/{id}", authed(blog.Update))
	mux.Handle("DELETE /api/v1/blogs/{id}", authed(blog.Delete))
	mux.Handle("POST /api/v1/blogs/{id}/toggle-bookmark", authed(blog.ToggleBookmark))
	mux.Handle("POST /api/v1/blogs/{id}/toggle-publish", authed(blog.TogglePublish))
	mux.Handle("POST /api/v1/blogs/{id}/images", authed(blog.AttachImage))
	mux.Handle("POST /api/v1/blogs/{id}/videos", authed(blog.AttachVideo))

	// Comments
	mux.Handle("POST /api/v1/comments", authed(comment.Create))
	mux.Handle("GET /api/v1/comments/{blogId}", authed(comment.ListByBlog))
	mux.Handle("PATCH /api/v1/comments/{id}", authed(comment.Update))
	mux.Handle("DELETE /api/v1/comments/{id}", authed(comment.Delete))

	// Replies
	mux.Handle("POST /api/v1/replies", authed(reply.Create))
	mux.Handle("GET /api/v1/replies/{commentId}", authed(reply.ListByComment))
	mux.Handle("PATCH /api/v1/replies/{id}", authed(reply.Update))
	mux.Handle("DELETE /api/v1/replies/{id}", authed(reply.Delete))

	// Likes (toggle semantics)
	mux.Handle("POST /api/v1/likes/blog/{id}", authed(like.ToggleBlog))
	mux.Handle("POST /api/v1/likes/comment/{id}", authed(like.ToggleComment))
	mux.Handle("POST /api/v1/likes/reply/{id}", authed(like.ToggleReply))

	// Follows
	mux.Handle("POST /api/v1/follows/{userId}", authed(following.Toggle))
	mux.Handle("GET /api/v1/follows/followers", authed(following.Followers))
	mux.Handle("GET /api/v1/follows/following", authed(following.Following))

	// Tags
	mux.Handle("POST /api/v1/tags", authed(tag.Create))
	mux.Handle("GET /api/v1/tags", authed(tag.List))
	mux.Handle("PATCH /api/v1/tags/{id}", authed(tag.Update))
	mux.Handle("DELETE /api/v1/tags/{id}", authed(tag.Delete))

	// Search
	mux.Handle("GET /api/v1/search/blogs", authed(search.Search))

	// Dashboard
	mux.Handle("GET /api/v1/dashboard/my-stats", authed(dashboard.MyStats))
	mux.Handle("GET /api/v1/dashboard/author-stats/{userId}", authed(dashboard.AuthorStats))

	// Users
	mux.Handle("GET /api/v1/users/me", authed(user.Me))
	mux.Handle("GET /api/v1/users/blogs", authed(blog.ListMine))
	mux.Handle("PATCH /api/v1/users/account", authed(user.UpdateDetails))
	mux.Handle("PATCH /api/v1/users/avatar", authed(user.UpdateAvatar))
	mux.Handle("DELETE /api/v1/users/account", middleware.RequireAuth(user.Delete(auth)))
	mux.Handle("GET /api/v1/users/bookmarks", authed(user.Bookmarks))
	mux.Handle("GET /api/v1/users/history", authed(user.History))

	// Global middleware: logging wraps everything, principal resolution runs
	// before the per-route auth gates.
	return middleware.Chain(mux,
		middleware.RequestLogging,
		middleware.Authenticate(app.TokenService, app.UserRepository),
	)
}
