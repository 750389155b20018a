package svc

import "errors"

// ErrStorageInitFailed 错误：存储初始化失败
var ErrStorageInitFailed = errors.New("storage initialization failed")

// ErrLoginFailed 错误：REST 登录失败
var ErrLoginFailed = errors.New("tastytrade login failed")
