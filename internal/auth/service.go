package auth

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrInvalidToken token 无效或已过期
	ErrInvalidToken = errors.New("invalid authentication credentials")
)

// User 登录用户
type User struct {
	Username string `json:"username"`
	Disabled bool   `json:"disabled"`
}

// Claims JWT 声明，sub 为用户名
type Claims struct {
	jwt.RegisteredClaims
}

// Service 内存用户表 + HS256 token
type Service struct {
	secret []byte
	ttl    time.Duration
	hashes map[string][]byte
	now    func() time.Time
}

// NewService 用明文密码表创建服务，密码只以 bcrypt 哈希保存
func NewService(secret string, ttl time.Duration, users map[string]string) (*Service, error) {
	return newService(secret, ttl, users, bcrypt.DefaultCost)
}

func newService(secret string, ttl time.Duration, users map[string]string, cost int) (*Service, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	s := &Service{
		secret: []byte(secret),
		ttl:    ttl,
		hashes: make(map[string][]byte, len(users)),
		now:    time.Now,
	}
	for name, password := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", name, err)
		}
		s.hashes[name] = hash
	}
	return s, nil
}

// Usernames 已注册用户名，按字母序
func (s *Service) Usernames() []string {
	names := make([]string, 0, len(s.hashes))
	for name := range s.hashes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Login 校验密码并签发 token
func (s *Service) Login(username, password string) (string, error) {
	hash, ok := s.hashes[username]
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.signToken(username)
}

// Authenticate 解析 token 并返回对应用户
func (s *Service) Authenticate(token string) (*User, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}
	if _, ok := s.hashes[claims.Subject]; !ok {
		return nil, ErrInvalidToken
	}
	return &User{Username: claims.Subject}, nil
}

func (s *Service) signToken(username string) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
