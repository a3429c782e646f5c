package http

import (
	"github.com/gin-gonic/gin"
)

var basePath = "/api/v1"

type QueryController interface {
	GetAccounts(*gin.Context)
	AddAccount(*gin.Context)

	GetTransactions(*gin.Context)

	TriggerSync(*gin.Context)
}

type Server struct {
	listenHost string
	router     *gin.Engine
}

func NewServer(host string) *Server {
	return &Server{listenHost: host, router: gin.Default()}
}

func (s *Server) RegisterRoutes(t QueryController) {
	base := s.router.Group(basePath)

	base.GET("/accounts", t.GetAccounts)
	base.POST("/accounts", t.AddAccount)

	base.GET("/transactions", t.GetTransactions)

	base.POST("/sync", t.TriggerSync)
}

func (s *Server) Run() error {
	return s.router.Run(s.listenHost)
}
