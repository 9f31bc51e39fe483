package domain

// Balance는 계정 잔고 정보를 표현합니다
type Balance struct {
	Asset              string  // 자산 심볼 (예: USDT, BTC)
	WalletBalance      float64 // 지갑 잔고
	CrossWalletBalance float64 // 교차 마진 지갑 잔고
	Available          float64 // 사용 가능한 잔고
}
