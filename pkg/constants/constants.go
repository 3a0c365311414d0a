package constants

const (
	CHANNEL_SIZE          = 100  // 通道大小
	SEND_BUFFER_SIZE      = 256  // 单个会话的下行缓冲
	FANOUT_CONCURRENCY    = 16   // 单次 Notify 的并发接收者上限
	REDIS_TIMEOUT         = 10   // redis 缓存过期时间 (分钟)
	DEFAULT_NOTIFY_LIMIT  = 50   // 通知列表默认条数
	MAX_NOTIFY_LIMIT      = 200  // 通知列表最大条数
	UNREAD_CACHE_PREFIX   = "notification_unread_"
	WS_MAX_MESSAGE_SIZE   = 8192 // 客户端上行帧大小上限（字节）
	WS_WRITE_WAIT_SECONDS = 10
	WS_PONG_WAIT_SECONDS  = 60
)
