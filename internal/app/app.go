package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/readium/readium/internal/config"
	"github.com/readium/readium/internal/db"
	"github.com/readium/readium/internal/repository"
	"github.com/readium/readium/internal/service"
	"github.com/readium/readium/internal/storage"
)

// App wires repositories, storage and services together. Handlers are built
// on top of it in routes.SetupRoutes.
type App struct {
	Cfg *config.Config
	DB  *sqlx.DB

	UserRepository repository.UserRepository

	TokenService     *service.TokenService
	EmailService     *service.EmailService
	AuthService      *service.AuthService
	BlogService      *service.BlogService
	CommentService   *service.CommentService
	ReplyService     *service.ReplyService
	LikeService      *service.LikeService
	FollowingService *service.FollowingService
	TagService       *service.TagService
	DashboardService *service.DashboardService
	UserService      *service.UserService
}

func New(cfg *config.Config) (*App, error) {
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	if err := db.RunMigrations(database.DB, cfg.DBDriver); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	blogRepository := repository.NewBlogRepository(database)
	tagRepository := repository.NewTagRepository(database)
	assetRepository := repository.NewAssetRepository(database)
	commentRepository := repository.NewCommentRepository(database)
	replyRepository := repository.NewReplyRepository(database)
	likeRepository := repository.NewLikeRepository(database)
	followingRepository := repository.NewFollowingRepository(database)

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	tokenService := service.NewTokenService(cfg)
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	authService := service.NewAuthService(
		userRepository,
		tokenService,
		emailService,
		cfg.VerificationCodeLength,
		cfg.VerificationCodeExpiry,
	)
	blogService := service.NewBlogService(blogRepository, tagRepository, assetRepository, userRepository, fileStorage)
	commentService := service.NewCommentService(commentRepository, replyRepository, blogRepository)
	replyService := service.NewReplyService(replyRepository, commentRepository)
	likeService := service.NewLikeService(likeRepository, blogRepository, commentRepository, replyRepository)
	followingService := service.NewFollowingService(followingRepository, userRepository)
	tagService := service.NewTagService(tagRepository)
	dashboardService := service.NewDashboardService(userRepository, blogRepository, likeRepository, followingRepository)
	userService := service.NewUserService(userRepository, blogRepository, fileStorage)

	return &App{
		Cfg: cfg,
		DB:  database,

		UserRepository: userRepository,

		TokenService:     tokenService,
		EmailService:     emailService,
		AuthService:      authService,
		BlogService:      blogService,
		CommentService:   commentService,
		ReplyService:     replyService,
		LikeService:      likeService,
		FollowingService: followingService,
		TagService:       tagService,
		DashboardService: dashboardService,
		UserService:      userService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
