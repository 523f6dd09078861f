package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/gstbill_backend/config"
	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	OwnerId   string    `gorm:"index;size:64;not null" json:"owner_id"`
	Username  string    `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email     *string   `gorm:"size:100;unique" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Password  string    `gorm:"size:255;not null" json:"password"`
	Role      UserRole  `gorm:"type:enum('A', 'O', 'S');default:S" json:"role"`
	IsActive  *bool     `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username string   `json:"username" binding:"required"`
	Name     string   `json:"name" binding:"required"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Password string   `json:"password" binding:"required"`
	Role     UserRole `json:"role" binding:"required,oneof=A O S"`
	IsActive *bool    `json:"is_active" binding:"required"`
}

type LoginInfo struct {
	Token      string   `json:"token"`
	Name       string   `json:"name"`
	Role       UserRole `json:"role"`
	Businesses []struct {
		Id   string `json:"id"`
		Name string `json:"name"`
	} `json:"businesses"`
}

/*
caches:
	User:$username
	Token:$token
*/

func (user User) RemoveInstanceRedis() error {
	return config.RemoveRedisKey("User:" + user.Username)
}

func (result *User) PrepareGive() {
	result.Password = ""
}

// Login checks the credentials and issues a signed token. The token is also
// registered in redis so it can be revoked server-side before expiry.
// passwordMatches treats any comparison failure as a mismatch: a malformed
// stored hash must deny the login, not slip past the check.
func passwordMatches(hashed, plain string) bool {
	return utils.ComparePassword(hashed, plain) == nil
}

func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {

	db := config.GetDB()
	var result LoginInfo

	user := User{}
	exists, err := config.GetRedisObject("User:"+username, &user)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Take(&user).Error; err != nil {
			return nil, errors.New("invalid username or password")
		}
	}

	if !passwordMatches(user.Password, password) {
		return nil, errors.New("invalid username or password")
	}

	if user.IsActive == nil || !*user.IsActive {
		return nil, errors.New("user is disabled")
	}

	token, err := utils.JwtGenerate(user.ID, user.OwnerId, string(user.Role))
	if err != nil {
		return nil, err
	}
	result.Token = token
	result.Name = user.Username
	result.Role = user.Role

	var businesses []*Business
	if err := db.WithContext(ctx).Model(&Business{}).
		Where("owner_id = ? AND is_active = true", user.OwnerId).
		Order("created_at").Find(&businesses).Error; err != nil {
		return nil, err
	}
	for _, b := range businesses {
		result.Businesses = append(result.Businesses, struct {
			Id   string `json:"id"`
			Name string `json:"name"`
		}{Id: b.ID.String(), Name: b.Name})
	}

	tokenLifespan, err := strconv.Atoi(os.Getenv("TOKEN_HOUR_LIFESPAN"))
	if err != nil {
		tokenLifespan = 24
	}
	if err := config.SetRedisValue("Token:"+token, user.Username, time.Duration(tokenLifespan)*time.Hour); err != nil {
		return nil, err
	}

	return &result, nil
}

// Logout revokes the current session token.
func Logout(ctx context.Context) (bool, error) {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return false, errors.New("token is required")
	}
	if err := config.RemoveRedisKey("Token:" + fmt.Sprint(token)); err != nil {
		return false, nil
	}
	return true, nil
}

func CreateUser(ctx context.Context, ownerId string, input *NewUser) (*User, error) {

	db := config.GetDB()
	var count int64

	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, errors.New("invalid email address")
	}

	err := db.WithContext(ctx).Model(&User{}).
		Where("username = ?", input.Username).Or("email = ?", input.Email).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("duplicate username or email")
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		OwnerId:  ownerId,
		Username: strings.ToLower(input.Username),
		Name:     input.Name,
		Phone:    input.Phone,
		Password: string(hashedPassword),
		Role:     input.Role,
		IsActive: input.IsActive,
	}
	if input.Email != "" {
		email := strings.ToLower(input.Email)
		user.Email = &email
	}

	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	user.PrepareGive()
	return &user, nil
}

func GetUserById(ctx context.Context, userId int) (*User, error) {

	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).Where("id = ?", userId).Take(&user).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &user, nil
}
