package model

import (
	"errors"
	"net/netip"
)

// ErrInvalidIPv4 表示地址不是严格的点分十进制IPv4
var ErrInvalidIPv4 = errors.New("invalid IPv4 address, expected dotted quad X.X.X.X with octets 0-255")

// ParseIPv4 解析严格的点分十进制IPv4地址。
// 不接受IPv6、IPv4映射的IPv6、前导零、空白和符号。
func ParseIPv4(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return netip.Addr{}, ErrInvalidIPv4
	}
	return addr, nil
}

// IsIPv4 判断字符串是否为合法的IPv4地址
func IsIPv4(s string) bool {
	_, err := ParseIPv4(s)
	return err == nil
}
