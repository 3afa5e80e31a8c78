package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供连接/请求行/命中状态字段，供代理请求日志复用。
func RequestFields(connID, method, uri string, cacheHit bool) logrus.Fields {
	fields := logrus.Fields{
		"method":    method,
		"uri":       uri,
		"cache_hit": cacheHit,
	}
	if connID != "" {
		fields["conn_id"] = connID
	}
	return fields
}

// DirFields 描述一次目录级缓存填充，repo 可为空（尚未解析出上游）。
func DirFields(action, repo, dir string) logrus.Fields {
	fields := logrus.Fields{
		"action": action,
		"dir":    dir,
	}
	if repo != "" {
		fields["repo"] = repo
	}
	return fields
}
