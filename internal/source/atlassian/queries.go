package atlassian

const myNotificationsQuery = `query MyNotifications($readState: InfluentsNotificationReadState, $flat: Boolean = true, $first: Int) {
  notifications {
    notificationFeed(flat: $flat, first: $first, filter: { readStateFilter: $readState }) {
      pageInfo {
        hasNextPage
      }
      nodes {
        groupId
        groupSize
        additionalActors {
          displayName
          avatarURL
        }
        headNotification {
          notificationId
          timestamp
          readState
          category
          content {
            type
            message
            url
            entity {
              title
              iconUrl
              url
            }
            path {
              title
              iconUrl
              url
            }
            actor {
              displayName
              avatarURL
            }
          }
          analyticsAttributes {
            key
            value
          }
        }
      }
    }
  }
}`

const meQuery = `query Me {
  me {
    user {
      accountId
      name
      picture
    }
  }
}`

const markByIDsAsReadMutation = `mutation MarkAsRead($notificationIDs: [String!]!) {
  notifications {
    markNotificationsByIdsAsRead(ids: $notificationIDs)
  }
}`

const markByIDsAsUnreadMutation = `mutation MarkAsUnread($notificationIDs: [String!]!) {
  notifications {
    markNotificationsByIdsAsUnread(ids: $notificationIDs)
  }
}`

const markGroupAsReadMutation = `mutation MarkGroupAsRead($groupId: String!) {
  notifications {
    markNotificationsByGroupIdAsRead(groupId: $groupId)
  }
}`

const markGroupAsUnreadMutation = `mutation MarkGroupAsUnread($groupId: String!) {
  notifications {
    markNotificationsByGroupIdAsUnread(groupId: $groupId)
  }
}`
