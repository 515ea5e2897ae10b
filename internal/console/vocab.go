package console

// Vocabulary is the static command list offered to completion. It
// covers the commonly typed commands; unknown commands still pass
// through to the backend, so omissions only cost a suggestion.
var Vocabulary = []string{
	"APPEND",
	"AUTH",
	"BITCOUNT",
	"BITPOS",
	"CLUSTER",
	"CONFIG",
	"COPY",
	"DBSIZE",
	"DECR",
	"DECRBY",
	"DEL",
	"DUMP",
	"ECHO",
	"EXISTS",
	"EXPIRE",
	"EXPIREAT",
	"FLUSHALL",
	"FLUSHDB",
	"GET",
	"GETDEL",
	"GETEX",
	"GETRANGE",
	"HDEL",
	"HEXISTS",
	"HGET",
	"HGETALL",
	"HINCRBY",
	"HKEYS",
	"HLEN",
	"HMGET",
	"HRANDFIELD",
	"HSCAN",
	"HSET",
	"HVALS",
	"INCR",
	"INCRBY",
	"INCRBYFLOAT",
	"INFO",
	"KEYS",
	"LINDEX",
	"LINSERT",
	"LLEN",
	"LMOVE",
	"LPOP",
	"LPUSH",
	"LRANGE",
	"LREM",
	"LSET",
	"LTRIM",
	"MEMORY",
	"MGET",
	"MONITOR",
	"MSET",
	"OBJECT",
	"PERSIST",
	"PEXPIRE",
	"PING",
	"PSUBSCRIBE",
	"PTTL",
	"PUBLISH",
	"RANDOMKEY",
	"RENAME",
	"RENAMENX",
	"RPOP",
	"RPUSH",
	"SADD",
	"SCAN",
	"SCARD",
	"SDIFF",
	"SELECT",
	"SET",
	"SETEX",
	"SETNX",
	"SETRANGE",
	"SINTER",
	"SISMEMBER",
	"SMEMBERS",
	"SMOVE",
	"SPOP",
	"SRANDMEMBER",
	"SREM",
	"SSCAN",
	"STRLEN",
	"SUBSCRIBE",
	"SUNION",
	"TTL",
	"TYPE",
	"UNLINK",
	"XADD",
	"XDEL",
	"XLEN",
	"XRANGE",
	"XREAD",
	"XREVRANGE",
	"ZADD",
	"ZCARD",
	"ZCOUNT",
	"ZINCRBY",
	"ZRANGE",
	"ZRANGEBYSCORE",
	"ZRANK",
	"ZREM",
	"ZREVRANGE",
	"ZSCAN",
	"ZSCORE",
}
